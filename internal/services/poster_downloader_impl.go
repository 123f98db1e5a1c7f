package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/cache"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// MaxPosterSize bounds the number of bytes read from a poster response.
const MaxPosterSize = 10 << 20

// DefaultPosterDownloader implements PosterDownloader with an optional byte cache
type DefaultPosterDownloader struct {
	httpClient  *http.Client
	posterCache cache.Cache
}

// NewPosterDownloader creates a new poster downloader. posterCache may be nil to disable caching.
func NewPosterDownloader(httpClient *http.Client, posterCache cache.Cache) PosterDownloader {
	return &DefaultPosterDownloader{
		httpClient:  httpClient,
		posterCache: posterCache,
	}
}

// DownloadPoster downloads a poster and sniffs its content type from the bytes
func (d *DefaultPosterDownloader) DownloadPoster(ctx context.Context, posterURL string) (*models.Poster, error) {
	logger := config.GetLogger()

	if posterURL == "" {
		return nil, fmt.Errorf("poster url is empty")
	}

	if d.posterCache != nil {
		if content, found := d.posterCache.Get(posterURL); found {
			logger.Debug().Str("url", posterURL).Int("size", len(content)).Msg("Retrieved poster from cache")
			metrics.PosterDownloadsTotal.WithLabelValues("cache").Inc()
			return newPoster(posterURL, content), nil
		}
	}

	content, err := d.downloadFile(ctx, posterURL)
	if err != nil {
		metrics.PosterDownloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PosterDownloadsTotal.WithLabelValues("remote").Inc()

	if d.posterCache != nil {
		d.posterCache.Set(posterURL, content)
	}

	logger.Info().Str("url", posterURL).Int("size", len(content)).Msg("Downloaded poster")
	return newPoster(posterURL, content), nil
}

func newPoster(posterURL string, content []byte) *models.Poster {
	return &models.Poster{
		URL:         posterURL,
		Content:     content,
		ContentType: mimetype.Detect(content).String(),
	}
}

// downloadFile fetches url, reading at most MaxPosterSize bytes
func (d *DefaultPosterDownloader) downloadFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: "poster", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: "poster", StatusCode: resp.StatusCode}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, MaxPosterSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read poster body: %w", err)
	}
	if len(content) > MaxPosterSize {
		return nil, fmt.Errorf("poster exceeds %d bytes", MaxPosterSize)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("poster body is empty")
	}
	return content, nil
}
