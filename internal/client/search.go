package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

// SearchSubjects searches series by keyword. No match is a valid empty page, not an error.
func (c *client) SearchSubjects(ctx context.Context, keyword string, page, pageSize int) (*models.Page[models.SeriesSummary], error) {
	logger := config.GetLogger()
	page, pageSize = normalizePaging(page, pageSize, DefaultSearchPageSize)

	query := url.Values{}
	query.Set("type", strconv.Itoa(models.SubjectTypeAnime))
	query.Set("responseGroup", "small")
	query.Set("start", strconv.Itoa(page*pageSize))
	query.Set("max_results", strconv.Itoa(pageSize))

	requestURL := fmt.Sprintf("%s/search/subject/%s?%s", c.baseURL, url.PathEscape(keyword), query.Encode())
	logger.Debug().Str("keyword", keyword).Int("page", page).Int("pageSize", pageSize).Msg("Searching subjects")

	body, err := c.fetch(ctx, "search", requestURL)
	if err != nil {
		return nil, err
	}

	result, err := c.searchParser.ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	result.Page = page
	result.PageSize = pageSize

	logger.Info().Str("keyword", keyword).Int("total", result.Total).Int("returned", len(result.Items)).Msg("Search completed")
	return &result, nil
}
