package services

import (
	"context"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// PosterDownloader defines the interface for downloading poster images
type PosterDownloader interface {
	// DownloadPoster fetches the image at posterURL, serving repeated URLs from cache
	DownloadPoster(ctx context.Context, posterURL string) (*models.Poster, error)
}
