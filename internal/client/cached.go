package client

import (
	"context"

	"github.com/Belphemur/BangumiBridge/internal/cache"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

const calendarCacheKey = "calendar"

// cachedClient keeps the last calendar in a cache. Every other call, subject
// lookups included, goes straight to the inner client: calendar items lack
// tags, episode counts and summaries.
type cachedClient struct {
	Client
	calendarCache cache.Cache
}

// NewCachedClient wraps inner so that the calendar is fetched at most once per cache TTL.
// A nil calendarCache returns inner unchanged.
func NewCachedClient(inner Client, calendarCache cache.Cache) Client {
	if calendarCache == nil {
		return inner
	}
	return &cachedClient{Client: inner, calendarCache: calendarCache}
}

func (c *cachedClient) GetCalendar(ctx context.Context) ([]models.CalendarDay, error) {
	logger := config.GetLogger()

	if days, ok := cache.GetJSON[[]models.CalendarDay](c.calendarCache, calendarCacheKey); ok {
		logger.Debug().Int("days", len(days)).Msg("Serving calendar from cache")
		return days, nil
	}

	days, err := c.Client.GetCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(c.calendarCache, calendarCacheKey, days); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache calendar")
	}
	return days, nil
}

// Close closes the calendar cache and then the inner client.
func (c *cachedClient) Close() error {
	cacheErr := c.calendarCache.Close()
	if err := c.Client.Close(); err != nil {
		return err
	}
	return cacheErr
}
