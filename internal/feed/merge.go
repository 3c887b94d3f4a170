package feed

import (
	"time"

	"rcast/internal/models"
)

// Merge computes the episodes to insert for a show: every fetched item
// whose URL is not already stored, first occurrence winning when the
// fetched list repeats a URL. Existing episodes are never re-derived or
// mutated. Pure apart from the timestamp capture.
func Merge(showID int64, existing []models.Episode, items []Item) []models.Episode {
	seen := make(map[string]struct{}, len(existing))
	for _, ep := range existing {
		seen[ep.URL] = struct{}{}
	}

	now := time.Now().Unix()

	var fresh []models.Episode
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}

		fresh = append(fresh, models.Episode{
			ShowID:      showID,
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			AudioType:   item.AudioType,
			PublishDate: item.PublishDate,
			IsPlayed:    false,
			Duration:    item.Duration,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return fresh
}
