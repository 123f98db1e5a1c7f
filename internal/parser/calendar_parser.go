package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// CalendarParser decodes the /calendar body into weekday buckets holding only series.
type CalendarParser struct{}

// NewCalendarParser creates a new calendar parser.
func NewCalendarParser() *CalendarParser {
	return &CalendarParser{}
}

// Parse keeps the remote weekday order and drops every subject that is not a series.
func (p *CalendarParser) Parse(body io.Reader) ([]models.CalendarDay, error) {
	var items []models.CalendarItem
	if err := json.NewDecoder(body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	days := make([]models.CalendarDay, 0, len(items))
	for _, item := range items {
		day := models.CalendarDay{
			Weekday: time.Weekday(item.Weekday.ID % 7),
			Name:    item.Weekday,
			Items:   make([]models.SeriesSummary, 0, len(item.Items)),
		}
		for _, subject := range item.Items {
			if subject.Type != models.SubjectTypeAnime {
				continue
			}
			day.Items = append(day.Items, ToSeriesSummary(subject))
		}
		days = append(days, day)
	}
	return days, nil
}
