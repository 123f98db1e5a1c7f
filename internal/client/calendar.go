package client

import (
	"context"
	"fmt"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

// GetCalendar fetches the weekly broadcast calendar, restricted to series.
func (c *client) GetCalendar(ctx context.Context) ([]models.CalendarDay, error) {
	logger := config.GetLogger()
	logger.Info().Msg("Fetching broadcast calendar")

	body, err := c.fetch(ctx, "calendar", c.baseURL+"/calendar")
	if err != nil {
		return nil, err
	}

	days, err := c.calendarParser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	total := 0
	for _, day := range days {
		total += len(day.Items)
	}
	logger.Info().Int("days", len(days)).Int("series", total).Msg("Successfully fetched calendar")
	return days, nil
}
