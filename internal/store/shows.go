package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rcast/internal/models"
)

// ListShows returns every subscribed show.
func (s *Store) ListShows(ctx context.Context) ([]models.Show, error) {
	var shows []models.Show
	err := s.db.SelectContext(ctx, &shows,
		`SELECT id, url, title, description, image_url, created_at, updated_at
		 FROM shows ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("store: list shows: %w", err)
	}
	return shows, nil
}

// GetShow returns a single show by id.
func (s *Store) GetShow(ctx context.Context, id int64) (models.Show, error) {
	var show models.Show
	err := s.db.GetContext(ctx, &show,
		`SELECT id, url, title, description, image_url, created_at, updated_at
		 FROM shows WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Show{}, fmt.Errorf("store: show %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Show{}, fmt.Errorf("store: get show %d: %w", id, err)
	}
	return show, nil
}

// AddShow inserts a show and returns its assigned id.
func (s *Store) AddShow(ctx context.Context, show models.Show) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shows (url, title, description, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		show.URL, show.Title, show.Description, show.ImageURL, show.CreatedAt, show.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("store: add show %s: %w", show.URL, err)
	}
	return res.LastInsertId()
}
