package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

var dateLayouts = []string{"2006-01-02", "2006-1-2", "2006-01"}

// ParseDate parses a Bangumi date. Empty or invalid dates yield nil, never a default date.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// PosterURL picks the poster used by the catalog: the common resolution, then
// the remaining resolutions from the largest down.
func PosterURL(images models.SubjectImages) string {
	for _, url := range []string{images.Common, images.Large, images.Medium, images.Small, images.Grid} {
		if url != "" {
			return url
		}
	}
	return ""
}

// DisplayName prefers the localized name and falls back to the original one.
func DisplayName(nameCN, name string) string {
	if nameCN != "" {
		return nameCN
	}
	return name
}

// FormatEpisodeNo renders an episode number as a two-digit code ("01", "12", "100").
// Fractional numbers such as recap episodes keep their decimal part ("07.5").
func FormatEpisodeNo(n float64) string {
	if n == math.Trunc(n) {
		return fmt.Sprintf("%02d", int(n))
	}
	whole := int(math.Trunc(n))
	frac := strconv.FormatFloat(n-float64(whole), 'f', -1, 64)
	return fmt.Sprintf("%02d%s", whole, strings.TrimPrefix(frac, "0"))
}

// ToSeriesSummary projects a remote subject into the catalog summary shape.
func ToSeriesSummary(s models.Subject) models.SeriesSummary {
	count := s.TotalEpisodes
	if count == 0 {
		count = s.EpsCount
	}
	date := s.Date
	if date == "" {
		date = s.AirDate
	}

	tags := make([]string, 0, len(s.Tags))
	for _, tag := range s.Tags {
		tags = append(tags, tag.Name)
	}

	return models.SeriesSummary{
		ID:          s.ID,
		Type:        s.Type,
		Name:        DisplayName(s.NameCN, s.Name),
		Description: s.Summary,
		PosterURL:   PosterURL(s.Images),
		LargePoster: s.Images.Large,
		Count:       count,
		PubAt:       ParseDate(date),
		Tags:        tags,
	}
}

// ToEpisodeSummary projects a remote episode into the catalog summary shape.
func ToEpisodeSummary(e models.Episode) models.EpisodeSummary {
	number := e.Ep
	if number == 0 {
		number = e.Sort
	}
	return models.EpisodeSummary{
		ID:        e.ID,
		SubjectID: e.SubjectID,
		No:        FormatEpisodeNo(number),
		Title:     DisplayName(e.NameCN, e.Name),
		PubAt:     ParseDate(e.AirDate),
	}
}
