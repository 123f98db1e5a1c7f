package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// SubjectParser decodes a single /v0/subjects/{id} body.
type SubjectParser struct{}

// NewSubjectParser creates a new subject parser.
func NewSubjectParser() *SubjectParser {
	return &SubjectParser{}
}

// ParseOne decodes the subject and projects it. The subject type is kept as-is;
// deciding whether it can be imported is left to the import path.
func (p *SubjectParser) ParseOne(body io.Reader) (models.SeriesSummary, error) {
	var subject models.Subject
	if err := json.NewDecoder(body).Decode(&subject); err != nil {
		return models.SeriesSummary{}, fmt.Errorf("failed to decode subject: %w", err)
	}
	if subject.ID == 0 {
		return models.SeriesSummary{}, fmt.Errorf("subject body has no id")
	}
	return ToSeriesSummary(subject), nil
}

// SearchParser decodes the legacy /search/subject body.
type SearchParser struct{}

// NewSearchParser creates a new search parser.
func NewSearchParser() *SearchParser {
	return &SearchParser{}
}

// ParsePage treats the remote's in-body 404 as an empty result set.
func (p *SearchParser) ParsePage(body io.Reader) (models.Page[models.SeriesSummary], error) {
	var response models.SearchResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return models.Page[models.SeriesSummary]{}, fmt.Errorf("failed to decode search results: %w", err)
	}

	page := models.Page[models.SeriesSummary]{Items: []models.SeriesSummary{}}
	if response.Code == 404 {
		return page, nil
	}

	page.Total = response.Results
	for _, subject := range response.List {
		page.Items = append(page.Items, ToSeriesSummary(subject))
	}
	return page, nil
}

// EpisodeParser decodes the /v0/episodes body.
type EpisodeParser struct{}

// NewEpisodeParser creates a new episode parser.
func NewEpisodeParser() *EpisodeParser {
	return &EpisodeParser{}
}

// ParsePage projects every episode of the page. SubjectID is back-filled from
// the request by the caller when the remote omits it.
func (p *EpisodeParser) ParsePage(body io.Reader) (models.Page[models.EpisodeSummary], error) {
	var response models.EpisodePage
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return models.Page[models.EpisodeSummary]{}, fmt.Errorf("failed to decode episodes: %w", err)
	}

	page := models.Page[models.EpisodeSummary]{
		Items: make([]models.EpisodeSummary, 0, len(response.Data)),
		Total: response.Total,
	}
	for _, episode := range response.Data {
		page.Items = append(page.Items, ToEpisodeSummary(episode))
	}
	return page, nil
}
