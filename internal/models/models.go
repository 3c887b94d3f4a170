package models

import (
	"fmt"
	"time"
)

// Show is a subscribed podcast feed. The feed URL is the identity; the
// numeric id is assigned by the store on insert.
type Show struct {
	ID          int64  `db:"id"`
	URL         string `db:"url"`
	Title       string `db:"title"`
	Description string `db:"description"`
	ImageURL    string `db:"image_url"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

// Episode is one playable item belonging to a Show. Within a show the
// source URL is unique; everything except IsPlayed is immutable after
// insert.
type Episode struct {
	ID          int64  `db:"id"`
	ShowID      int64  `db:"show_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	URL         string `db:"url"`
	AudioType   string `db:"audio_type"`
	PublishDate int64  `db:"publish_date"`
	IsPlayed    bool   `db:"is_played"`
	Duration    int64  `db:"duration"` // seconds
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

// FormatPublishDate renders the publish date relative to now, the way the
// episode lists display it.
func (e Episode) FormatPublishDate() string {
	days := (time.Now().Unix() - e.PublishDate) / 86400
	switch {
	case days <= 0:
		return "Today"
	case days <= 6:
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	case days <= 21:
		weeks := days / 7
		return fmt.Sprintf("%d week%s ago", weeks, plural(weeks))
	default:
		return time.Unix(e.PublishDate, 0).UTC().Format("01/02/2006")
	}
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// QueueItem is an ordered playback queue entry. New items append at
// max(position)+1; autoplay consumes from the lowest position.
type QueueItem struct {
	ID        int64 `db:"id"`
	EpisodeID int64 `db:"episode_id"`
	Position  int64 `db:"position"`
	CreatedAt int64 `db:"created_at"`
}

// Settings are the user preferences persisted in the key/value table.
type Settings struct {
	DefaultVolume       float64
	SkipBackwardSeconds int
	SkipForwardSeconds  int
	SyncIntervalMinutes int
	AutoPlayNext        bool
}

// DefaultSettings returns the values used when a key is missing or
// unparseable.
func DefaultSettings() Settings {
	return Settings{
		DefaultVolume:       50,
		SkipBackwardSeconds: 15,
		SkipForwardSeconds:  15,
		SyncIntervalMinutes: 30,
		AutoPlayNext:        true,
	}
}
