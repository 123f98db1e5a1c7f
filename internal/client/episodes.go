package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

// GetEpisodes lists one page of the main episodes of a subject. page is zero-based.
func (c *client) GetEpisodes(ctx context.Context, subjectID, page, pageSize int) (*models.Page[models.EpisodeSummary], error) {
	logger := config.GetLogger()
	page, pageSize = normalizePaging(page, pageSize, DefaultEpisodePageSize)

	query := url.Values{}
	query.Set("subject_id", strconv.Itoa(subjectID))
	query.Set("type", strconv.Itoa(models.EpisodeTypeMain))
	query.Set("offset", strconv.Itoa(page*pageSize))
	query.Set("limit", strconv.Itoa(pageSize))

	logger.Debug().Int("subjectID", subjectID).Int("page", page).Int("pageSize", pageSize).Msg("Fetching episodes")

	body, err := c.fetch(ctx, "episodes", c.baseURL+"/v0/episodes?"+query.Encode())
	if err != nil {
		return nil, err
	}

	result, err := c.episodeParser.ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse episodes: %w", err)
	}
	for i := range result.Items {
		if result.Items[i].SubjectID == 0 {
			result.Items[i].SubjectID = subjectID
		}
	}
	result.Page = page
	result.PageSize = pageSize
	return &result, nil
}

// normalizePaging clamps a negative page to 0 and a non-positive size to the default.
func normalizePaging(page, pageSize, defaultSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page, pageSize
}
