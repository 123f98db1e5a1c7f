package importer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/errreport"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"golang.org/x/text/unicode/norm"
)

// Pipeline step names reported in *apperrors.ErrPipelineStep.
const (
	StepTags   = "tags"
	StepPoster = "poster"
	StepBlob   = "blob"
	StepFile   = "file"
	StepSeries = "series"
	StepReload = "reload"
)

// PosterFetcher downloads poster bytes.
type PosterFetcher interface {
	DownloadPoster(ctx context.Context, posterURL string) (*models.Poster, error)
}

// TagStore upserts tags by name.
type TagStore interface {
	UpsertByNames(ctx context.Context, names []string) ([]models.Tag, error)
}

// FileStore persists file records.
type FileStore interface {
	Insert(ctx context.Context, file *models.File) error
}

// SeriesStore persists and re-reads series records.
type SeriesStore interface {
	Insert(ctx context.Context, series *models.Series) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Series, error)
}

// BlobWriter writes poster bytes and returns where they ended up.
type BlobWriter interface {
	Write(name string, data []byte) (string, error)
}

// Request asks to import one subject on behalf of a user.
type Request struct {
	Subject models.SeriesSummary
	UserID  int64
}

// Importer runs the import pipeline. Steps run in order and are not rolled back:
// a failure after the file record was written leaves that file in place.
type Importer struct {
	posters PosterFetcher
	tags    TagStore
	files   FileStore
	series  SeriesStore
	blobs   BlobWriter
}

// New creates an importer.
func New(posters PosterFetcher, tags TagStore, files FileStore, series SeriesStore, blobs BlobWriter) *Importer {
	return &Importer{
		posters: posters,
		tags:    tags,
		files:   files,
		series:  series,
		blobs:   blobs,
	}
}

// CheckImportable rejects subjects that are not series.
func CheckImportable(subject *models.SeriesSummary) error {
	if subject == nil {
		return fmt.Errorf("subject is nil")
	}
	if !subject.IsSeries() {
		return &apperrors.ErrSubjectKindMismatch{SubjectID: subject.ID, Type: subject.Type}
	}
	return nil
}

// Import stores the subject's tags, poster file and series record, then returns
// the series as read back from the store.
func (im *Importer) Import(ctx context.Context, req Request) (*models.Series, error) {
	logger := config.GetLogger()
	subject := req.Subject

	series, err := im.run(ctx, req)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		step := ""
		var stepErr *apperrors.ErrPipelineStep
		if errors.As(err, &stepErr) {
			step = stepErr.Step
		}
		logger.Error().Err(err).Int("subjectID", subject.ID).Str("step", step).Msg("Import failed")
		errreport.Capture(err, map[string]string{
			"subject_id": strconv.Itoa(subject.ID),
			"step":       step,
		})
		return nil, err
	}

	metrics.ImportsTotal.WithLabelValues("success").Inc()
	logger.Info().Int("subjectID", subject.ID).Int64("seriesID", series.ID).Str("name", series.Name).Msg("Series imported")
	return series, nil
}

func (im *Importer) run(ctx context.Context, req Request) (*models.Series, error) {
	subject := req.Subject
	if err := CheckImportable(&subject); err != nil {
		return nil, err
	}

	tags, err := im.tags.UpsertByNames(ctx, NormalizeTags(subject.Tags))
	if err != nil {
		return nil, apperrors.NewPipelineStepError(StepTags, err)
	}

	if subject.PosterURL == "" {
		return nil, apperrors.NewPipelineStepError(StepPoster, fmt.Errorf("subject %d has no poster", subject.ID))
	}
	poster, err := im.posters.DownloadPoster(ctx, subject.PosterURL)
	if err != nil {
		return nil, apperrors.NewPipelineStepError(StepPoster, err)
	}
	if !strings.HasPrefix(poster.ContentType, "image/") {
		return nil, apperrors.NewPipelineStepError(StepPoster, fmt.Errorf("poster is %s, not an image", poster.ContentType))
	}

	base, ext := urlBaseAndExt(subject.PosterURL)
	blobPath, err := im.blobs.Write(Fingerprint([]byte(subject.PosterURL))+ext, poster.Content)
	if err != nil {
		return nil, apperrors.NewPipelineStepError(StepBlob, err)
	}

	file := &models.File{
		Filename: base,
		Name:     base,
		Size:     int64(len(poster.Content)),
		MD5:      Fingerprint(poster.Content),
		MimeType: MimeTypeForExt(ext),
		Source:   models.FileSourceUserUpload,
		Path:     blobPath,
	}
	if err := im.files.Insert(ctx, file); err != nil {
		return nil, apperrors.NewPipelineStepError(StepFile, err)
	}

	id, err := im.series.Insert(ctx, &models.Series{
		Name:        subject.Name,
		Description: subject.Description,
		PubAt:       subject.PubAt,
		Count:       subject.Count,
		UserID:      req.UserID,
		Poster:      file,
		Tags:        tags,
	})
	if err != nil {
		return nil, apperrors.NewPipelineStepError(StepSeries, err)
	}

	stored, err := im.series.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewPipelineStepError(StepReload, err)
	}
	return stored, nil
}

// NormalizeTags applies NFKC, trims, drops empty names and removes duplicates, keeping first occurrences.
func NormalizeTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(norm.NFKC.String(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Fingerprint returns the hex MD5 digest of data.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// MimeTypeForExt maps a poster extension to the stored MIME type.
func MimeTypeForExt(ext string) string {
	if strings.HasSuffix(strings.ToLower(ext), "png") {
		return "image/png"
	}
	return "image/jpeg"
}

// urlBaseAndExt returns the last path segment of rawURL and its extension, ignoring any query.
func urlBaseAndExt(rawURL string) (string, string) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	return base, path.Ext(base)
}
