package cache

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", func(cfg ProviderConfig) (Cache, error) {
		return newLRUCache(cfg), nil
	})
}

// lruCache is the in-process provider: a size-bounded LRU whose entries expire after cfg.TTL.
// KeyPrefix is ignored since nothing else shares the map.
type lruCache struct {
	entries *expirable.LRU[string, []byte]
}

func newLRUCache(cfg ProviderConfig) *lruCache {
	var onEvict expirable.EvictCallback[string, []byte]
	if cfg.OnEvict != nil {
		onEvict = expirable.EvictCallback[string, []byte](cfg.OnEvict)
	}
	return &lruCache{entries: expirable.NewLRU(cfg.Size, onEvict, cfg.TTL)}
}

func (l *lruCache) Get(key string) ([]byte, bool) { return l.entries.Get(key) }

func (l *lruCache) Set(key string, value []byte) { l.entries.Add(key, value) }

func (l *lruCache) Delete(key string) { l.entries.Remove(key) }

func (l *lruCache) Contains(key string) bool { return l.entries.Contains(key) }

func (l *lruCache) Len() int { return l.entries.Len() }

// Close is a no-op; the entries are dropped with the cache.
func (l *lruCache) Close() error { return nil }
