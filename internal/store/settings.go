package store

import (
	"context"
	"fmt"
	"strconv"

	"rcast/internal/models"
)

// GetSettings loads user settings from the key/value table. Missing or
// unparseable keys fall back to their defaults.
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	rows, err := s.db.QueryxContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("store: get settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("store: scan setting: %w", err)
		}
		switch key {
		case "default_volume":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				settings.DefaultVolume = v
			}
		case "skip_backward_seconds":
			if v, err := strconv.Atoi(value); err == nil {
				settings.SkipBackwardSeconds = v
			}
		case "skip_forward_seconds":
			if v, err := strconv.Atoi(value); err == nil {
				settings.SkipForwardSeconds = v
			}
		case "sync_interval_minutes":
			if v, err := strconv.Atoi(value); err == nil {
				settings.SyncIntervalMinutes = v
			}
		case "auto_play_next":
			settings.AutoPlayNext = value == "true"
		}
	}
	return settings, rows.Err()
}

// SaveSettings upserts every settings key.
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	pairs := map[string]string{
		"default_volume":        strconv.FormatFloat(settings.DefaultVolume, 'f', -1, 64),
		"skip_backward_seconds": strconv.Itoa(settings.SkipBackwardSeconds),
		"skip_forward_seconds":  strconv.Itoa(settings.SkipForwardSeconds),
		"sync_interval_minutes": strconv.Itoa(settings.SyncIntervalMinutes),
		"auto_play_next":        strconv.FormatBool(settings.AutoPlayNext),
	}

	for key, value := range pairs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("store: save setting %s: %w", key, err)
		}
	}
	return nil
}
