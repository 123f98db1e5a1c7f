package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/models"
)

type SeriesRepo struct {
	DB *sql.DB
}

func NewSeriesRepo(db *sql.DB) *SeriesRepo {
	return &SeriesRepo{DB: db}
}

// Insert stores the series and its tag links in one transaction and returns the new id.
// Tags must already exist.
func (r *SeriesRepo) Insert(ctx context.Context, series *models.Series) (int64, error) {
	if series.CreatedAt.IsZero() {
		series.CreatedAt = time.Now().UTC()
	}

	var posterID sql.NullString
	if series.Poster != nil {
		posterID = sql.NullString{String: series.Poster.ID, Valid: true}
	}
	var pubAt sql.NullTime
	if series.PubAt != nil {
		pubAt = sql.NullTime{Time: *series.PubAt, Valid: true}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin series insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO series (name, description, pub_at, count, user_id, poster_file_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, series.Name, series.Description, pubAt, series.Count, series.UserID, posterID, series.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert series: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("series id: %w", err)
	}

	for _, tag := range series.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO series_tags (series_id, tag_id) VALUES (?, ?)`, id, tag.ID,
		); err != nil {
			return 0, fmt.Errorf("link tag %q: %w", tag.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit series insert: %w", err)
	}
	series.ID = id
	return id, nil
}

// GetByID re-reads a series with its poster and tags, or returns an *apperrors.ErrNotFound.
func (r *SeriesRepo) GetByID(ctx context.Context, id int64) (*models.Series, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.description, s.pub_at, s.count, s.user_id, s.created_at,
		       f.id, f.filename, f.name, f.size, f.md5, f.mimetype, f.source, f.path, f.created_at
		FROM series s
		LEFT JOIN files f ON f.id = s.poster_file_id
		WHERE s.id = ?
	`, id)

	var (
		series models.Series
		pubAt  sql.NullTime

		fileID, filename, fileName, md5, mimeType, source, path sql.NullString
		size                                                     sql.NullInt64
		fileCreatedAt                                            sql.NullTime
	)
	err := row.Scan(
		&series.ID, &series.Name, &series.Description, &pubAt, &series.Count, &series.UserID, &series.CreatedAt,
		&fileID, &filename, &fileName, &size, &md5, &mimeType, &source, &path, &fileCreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("series", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan series: %w", err)
	}

	if pubAt.Valid {
		t := pubAt.Time
		series.PubAt = &t
	}
	if fileID.Valid {
		series.Poster = &models.File{
			ID:        fileID.String,
			Filename:  filename.String,
			Name:      fileName.String,
			Size:      size.Int64,
			MD5:       md5.String,
			MimeType:  mimeType.String,
			Source:    models.FileSource(source.String),
			Path:      path.String,
			CreatedAt: fileCreatedAt.Time,
		}
	}

	tags, err := r.tagsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	series.Tags = tags
	return &series, nil
}

func (r *SeriesRepo) tagsOf(ctx context.Context, seriesID int64) ([]models.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM series_tags st
		JOIN tags t ON t.id = st.tag_id
		WHERE st.series_id = ?
		ORDER BY t.id
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan series tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Count returns the number of stored series.
func (r *SeriesRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM series`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count series: %w", err)
	}
	return n, nil
}
