// Package syncer keeps subscribed shows up to date with their feeds.
package syncer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rcast/internal/feed"
	"rcast/internal/logging"
	"rcast/internal/models"
)

// Store is the slice of the persistence contract the coordinator needs.
type Store interface {
	ListShows(ctx context.Context) ([]models.Show, error)
	ListEpisodes(ctx context.Context, showID int64) ([]models.Episode, error)
	AddShow(ctx context.Context, show models.Show) (int64, error)
	AddEpisode(ctx context.Context, ep models.Episode) (int64, error)
}

// Fetcher fetches and parses one feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Feed, error)
}

// Coordinator serializes feed synchronization: at most one SyncAll runs
// system-wide, and shows within a cycle are processed sequentially.
type Coordinator struct {
	store   Store
	fetcher Fetcher
	log     zerolog.Logger
	syncing atomic.Bool
}

// New returns a Coordinator over the given store and fetcher.
func New(store Store, fetcher Fetcher) *Coordinator {
	return &Coordinator{
		store:   store,
		fetcher: fetcher,
		log:     logging.WithComponent("syncer"),
	}
}

// IsSyncing reports whether a sync cycle is in flight.
func (c *Coordinator) IsSyncing() bool {
	return c.syncing.Load()
}

// SyncAll refreshes every subscribed show. A racing second call is a
// silent no-op. One show failing does not abort the rest; failing to even
// list shows aborts this cycle only.
func (c *Coordinator) SyncAll(ctx context.Context) {
	if !c.syncing.CompareAndSwap(false, true) {
		return
	}
	defer c.syncing.Store(false)

	shows, err := c.store.ListShows(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list shows, skipping cycle")
		return
	}

	for _, show := range shows {
		if err := c.syncShow(ctx, show); err != nil {
			c.log.Error().Err(err).Str("show", show.Title).Str("url", show.URL).Msg("sync failed")
		}
	}
}

// syncShow fetches one show's feed and inserts the episodes not yet
// stored.
func (c *Coordinator) syncShow(ctx context.Context, show models.Show) error {
	doc, err := c.fetcher.Fetch(ctx, show.URL)
	if err != nil {
		return err
	}

	existing, err := c.store.ListEpisodes(ctx, show.ID)
	if err != nil {
		return err
	}

	fresh := feed.Merge(show.ID, existing, doc.Items)
	for _, ep := range fresh {
		if _, err := c.store.AddEpisode(ctx, ep); err != nil {
			return err
		}
	}

	if len(fresh) > 0 {
		c.log.Info().Str("show", show.Title).Int("new_episodes", len(fresh)).Msg("synced")
	}
	return nil
}

// AddShow subscribes to a new feed: fetch, persist the show, then persist
// every extracted episode. Fetch or show-insert failure is fatal; a
// single episode insert failing is logged and the rest continue.
func (c *Coordinator) AddShow(ctx context.Context, url string) (models.Show, error) {
	doc, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Show{}, err
	}

	now := time.Now().Unix()
	show := models.Show{
		URL:         url,
		Title:       doc.Title,
		Description: doc.Description,
		ImageURL:    doc.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := c.store.AddShow(ctx, show)
	if err != nil {
		return models.Show{}, err
	}
	show.ID = id

	for _, ep := range feed.Merge(id, nil, doc.Items) {
		if _, err := c.store.AddEpisode(ctx, ep); err != nil {
			c.log.Error().Err(err).Str("episode", ep.Title).Msg("failed to add episode")
		}
	}

	c.log.Info().Str("show", show.Title).Msg("subscribed")
	return show, nil
}

// Run drives the recurring sync: a one-shot startup sync concurrent with
// the timer's first wait, then one cycle per interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	c.log.Info().Dur("interval", interval).Msg("background sync started")

	go c.SyncAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("background sync stopped")
			return
		case <-ticker.C:
			c.SyncAll(ctx)
		}
	}
}
