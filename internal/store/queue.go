package store

import (
	"context"
	"fmt"
	"time"

	"rcast/internal/models"
)

// ListQueue returns the playback queue ordered by position, lowest first.
func (s *Store) ListQueue(ctx context.Context) ([]models.QueueItem, error) {
	var items []models.QueueItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, episode_id, position, created_at FROM queue ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: list queue: %w", err)
	}
	return items, nil
}

// Enqueue appends an episode at the end of the queue.
func (s *Store) Enqueue(ctx context.Context, episodeID int64) error {
	// COALESCE covers the empty-queue case: first entry gets position 0.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queue (episode_id, position, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM queue), ?)`,
		episodeID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: enqueue episode %d: %w", episodeID, err)
	}
	return nil
}

// Dequeue removes a queue entry by its queue id.
func (s *Store) Dequeue(ctx context.Context, queueID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue WHERE id = ?`, queueID)
	if err != nil {
		return fmt.Errorf("store: dequeue %d: %w", queueID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: queue item %d: %w", queueID, ErrNotFound)
	}
	return nil
}
