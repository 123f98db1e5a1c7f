package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/cache"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/Belphemur/BangumiBridge/internal/parser"
	"github.com/Belphemur/BangumiBridge/internal/services"
)

const (
	// DefaultEpisodePageSize is the page size used when listing episodes without an explicit size.
	DefaultEpisodePageSize = 100
	// DefaultSearchPageSize is the page size used when searching without an explicit size.
	DefaultSearchPageSize = 25
)

// Client defines the interface for querying the Bangumi API.
// Every method is stateless: nothing is cached between calls unless the client
// is wrapped with NewCachedClient.
type Client interface {
	GetCalendar(ctx context.Context) ([]models.CalendarDay, error)
	GetSubject(ctx context.Context, subjectID int) (*models.SeriesSummary, error)
	// GetSubjects resolves several subjects concurrently. Results follow the order of subjectIDs.
	GetSubjects(ctx context.Context, subjectIDs []int) []SubjectResult
	GetEpisodes(ctx context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error)
	SearchSubjects(ctx context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error)
	DownloadPoster(ctx context.Context, posterURL string) (*models.Poster, error)

	// Close releases any resources held by the client (e.g., cache connections).
	Close() error
}

// SubjectResult is the outcome of one lookup of a GetSubjects batch.
type SubjectResult struct {
	SubjectID int
	Subject   *models.SeriesSummary
	Err       error
}

// client implements the Client interface
type client struct {
	httpClient       *http.Client
	baseURL          string
	calendarParser   parser.Parser[models.CalendarDay]
	subjectParser    parser.SingleResultParser[models.SeriesSummary]
	episodeParser    parser.PaginatedParser[models.EpisodeSummary]
	searchParser     parser.PaginatedParser[models.SeriesSummary]
	posterDownloader services.PosterDownloader
	posterCache      cache.Cache
	maxConcurrency   int
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()

	timeout := 30 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		} else {
			timeout = parsedTimeout
		}
	}

	// Clone DefaultTransport to keep its pooling and HTTP/2 settings
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newRateLimitTransport(newCompressionTransport(baseTransport), cfg.RateLimit),
	}

	baseURL := cfg.BangumiAPIDomain
	if baseURL == "" {
		baseURL = config.DefaultBangumiAPIDomain
	}

	posterCache := newPosterCache(cfg)

	return &client{
		httpClient:       httpClient,
		baseURL:          baseURL,
		calendarParser:   parser.NewCalendarParser(),
		subjectParser:    parser.NewSubjectParser(),
		episodeParser:    parser.NewEpisodeParser(),
		searchParser:     parser.NewSearchParser(),
		posterDownloader: services.NewPosterDownloader(httpClient, posterCache),
		posterCache:      posterCache,
		maxConcurrency:   4,
	}
}

// newPosterCache builds the poster byte cache. Failures only disable caching.
func newPosterCache(cfg *config.Config) cache.Cache {
	return newConfiguredCache(cfg, "posters", "bgmcache:poster:")
}

// NewCalendarCache builds the cache used by NewCachedClient, or nil when the
// configured provider is unavailable.
func NewCalendarCache(cfg *config.Config) cache.Cache {
	return newConfiguredCache(cfg, "calendar", "bgmcache:calendar:")
}

func newConfiguredCache(cfg *config.Config, group, keyPrefix string) cache.Cache {
	logger := config.GetLogger()

	provider := cfg.Cache.Provider
	if provider == "" {
		provider = "memory"
	}
	size := cfg.Cache.Size
	if size <= 0 {
		size = 64
	}
	ttl := time.Hour
	if cfg.Cache.TTL != "" {
		if parsed, err := time.ParseDuration(cfg.Cache.TTL); err == nil {
			ttl = parsed
		}
	}

	c, err := cache.New(provider, cache.ProviderConfig{
		Size:          size,
		TTL:           ttl,
		Logger:        zerologCacheLogger{},
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		KeyPrefix:     keyPrefix,
		Group:         group,
	})
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Str("cache", group).Msg("Cache unavailable, continuing without it")
		return nil
	}
	return c
}

// zerologCacheLogger forwards cache backend errors to the global logger.
type zerologCacheLogger struct{}

func (zerologCacheLogger) Error(msg string, err error) {
	logger := config.GetLogger()
	logger.Error().Err(err).Msg(msg)
}

// DownloadPoster fetches a poster image through the shared HTTP client.
func (c *client) DownloadPoster(ctx context.Context, posterURL string) (*models.Poster, error) {
	return c.posterDownloader.DownloadPoster(ctx, posterURL)
}

// Close releases any resources held by the client, such as cache connections.
func (c *client) Close() error {
	if c.posterCache != nil {
		return c.posterCache.Close()
	}
	return nil
}
