package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rcast/internal/models"
)

// ListEpisodes returns a show's episodes, newest first.
func (s *Store) ListEpisodes(ctx context.Context, showID int64) ([]models.Episode, error) {
	var episodes []models.Episode
	err := s.db.SelectContext(ctx, &episodes,
		`SELECT id, show_id, title, description, url, audio_type, publish_date,
		        is_played, duration, created_at, updated_at
		 FROM episodes WHERE show_id = ? ORDER BY publish_date DESC`, showID)
	if err != nil {
		return nil, fmt.Errorf("store: list episodes for show %d: %w", showID, err)
	}
	return episodes, nil
}

// GetEpisode returns a single episode by id.
func (s *Store) GetEpisode(ctx context.Context, id int64) (models.Episode, error) {
	var ep models.Episode
	err := s.db.GetContext(ctx, &ep,
		`SELECT id, show_id, title, description, url, audio_type, publish_date,
		        is_played, duration, created_at, updated_at
		 FROM episodes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Episode{}, fmt.Errorf("store: episode %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Episode{}, fmt.Errorf("store: get episode %d: %w", id, err)
	}
	return ep, nil
}

// AddEpisode inserts an episode and returns its assigned id.
func (s *Store) AddEpisode(ctx context.Context, ep models.Episode) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (show_id, title, description, url, audio_type,
		                       publish_date, is_played, duration, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ShowID, ep.Title, ep.Description, ep.URL, ep.AudioType,
		ep.PublishDate, ep.IsPlayed, ep.Duration, ep.CreatedAt, ep.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("store: add episode %q: %w", ep.Title, err)
	}
	return res.LastInsertId()
}

// SetEpisodePlayed toggles the played flag and touches updated_at.
func (s *Store) SetEpisodePlayed(ctx context.Context, id int64, played bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE episodes SET is_played = ?, updated_at = ? WHERE id = ?`,
		played, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("store: set episode %d played: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: episode %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountEpisodes returns the number of episodes stored for a show.
func (s *Store) CountEpisodes(ctx context.Context, showID int64) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM episodes WHERE show_id = ?`, showID)
	if err != nil {
		return 0, fmt.Errorf("store: count episodes for show %d: %w", showID, err)
	}
	return count, nil
}
