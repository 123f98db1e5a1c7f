package models

import "time"

// SeriesSummary is the catalog-facing projection of a Bangumi subject.
type SeriesSummary struct {
	ID          int        `json:"id"`
	Type        int        `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PosterURL   string     `json:"poster_url"`
	LargePoster string     `json:"large_poster_url,omitempty"`
	Count       int        `json:"count"`
	PubAt       *time.Time `json:"pub_at,omitempty"`
	Tags        []string   `json:"tags"`
}

// IsSeries reports whether the subject can be imported as a series.
func (s SeriesSummary) IsSeries() bool {
	return s.Type == SubjectTypeAnime
}

// CalendarDay groups the series airing on one weekday. Weekday follows time.Weekday (Sunday = 0).
type CalendarDay struct {
	Weekday time.Weekday    `json:"weekday"`
	Name    Weekday         `json:"name"`
	Items   []SeriesSummary `json:"items"`
}

// EpisodeSummary is the catalog-facing projection of a Bangumi episode.
type EpisodeSummary struct {
	ID        int        `json:"id"`
	SubjectID int        `json:"subject_id"`
	No        string     `json:"no"`
	Title     string     `json:"title"`
	PubAt     *time.Time `json:"pub_at,omitempty"`
}

// Page is one page of a paginated listing. Page is zero-based.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
