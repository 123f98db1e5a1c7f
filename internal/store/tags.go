package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

type TagRepo struct {
	DB *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{DB: db}
}

// UpsertByNames makes sure a tag exists for every name and returns them in input order,
// duplicates removed. Calling it again with the same names creates nothing new.
func (r *TagRepo) UpsertByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tag upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tags (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare tag upsert: %w", err)
	}
	defer stmt.Close()

	seen := make(map[string]bool, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		var id int64
		if err := stmt.QueryRowContext(ctx, name).Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		tags = append(tags, models.Tag{ID: id, Name: name})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tag upsert: %w", err)
	}
	return tags, nil
}

// List returns every tag ordered by name.
func (r *TagRepo) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
