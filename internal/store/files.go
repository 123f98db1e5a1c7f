package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/models"
	"github.com/google/uuid"
)

type FileRepo struct {
	DB *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{DB: db}
}

// Insert stores file, assigning its ID and CreatedAt when unset.
func (r *FileRepo) Insert(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate file id: %w", err)
		}
		file.ID = id.String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO files (id, filename, name, size, md5, mimetype, source, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, file.ID, file.Filename, file.Name, file.Size, file.MD5, file.MimeType, string(file.Source), file.Path, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetByID returns the file or an *apperrors.ErrNotFound.
func (r *FileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, filename, name, size, md5, mimetype, source, path, created_at
		FROM files
		WHERE id = ?
	`, id)

	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("file", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return file, nil
}

// Count returns the number of stored files.
func (r *FileRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var (
		file   models.File
		source string
	)
	if err := row.Scan(&file.ID, &file.Filename, &file.Name, &file.Size, &file.MD5, &file.MimeType, &source, &file.Path, &file.CreatedAt); err != nil {
		return nil, err
	}
	file.Source = models.FileSource(source)
	return &file, nil
}
