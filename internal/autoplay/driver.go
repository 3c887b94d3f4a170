// Package autoplay chains the next queued episode when playback finishes
// on its own.
package autoplay

import (
	"context"

	"github.com/rs/zerolog"

	"rcast/internal/logging"
	"rcast/internal/models"
	"rcast/internal/player"
)

// Engine is the slice of the playback engine the driver observes.
type Engine interface {
	Finished() bool
	State() player.State
	CurrentEpisodeID() int64
	Stop()
}

// Queue reads and consumes the playback queue.
type Queue interface {
	ListQueue(ctx context.Context) ([]models.QueueItem, error)
	Dequeue(ctx context.Context, queueID int64) error
}

// PlayFunc resolves and starts playback of an episode. Supplied by the
// caller so the driver stays free of cache and store plumbing.
type PlayFunc func(ctx context.Context, episodeID int64) error

// Driver is polled every tick rather than notified; downstream timing
// depends on the per-frame poll contract.
type Driver struct {
	engine Engine
	queue  Queue
	play   PlayFunc
	log    zerolog.Logger

	// Guards against retriggering every tick while the finished episode
	// has not been replaced yet. 0 means no episode handled.
	lastFinished int64
}

// New returns a Driver over the given engine and queue.
func New(engine Engine, queue Queue, play PlayFunc) *Driver {
	return &Driver{
		engine: engine,
		queue:  queue,
		play:   play,
		log:    logging.WithComponent("autoplay"),
	}
}

// Tick runs one poll. When the current episode has finished by itself
// and autoplay is enabled, the head of the queue is consumed and played;
// an empty queue stops the engine. Queue read failures degrade to an
// empty queue.
func (d *Driver) Tick(ctx context.Context, enabled bool) {
	if d.engine.Finished() && enabled {
		current := d.engine.CurrentEpisodeID()
		if current == d.lastFinished {
			return
		}
		d.lastFinished = current

		items, err := d.queue.ListQueue(ctx)
		if err != nil {
			d.log.Error().Err(err).Msg("queue read failed")
			items = nil
		}

		if len(items) == 0 {
			d.log.Debug().Msg("queue empty, stopping")
			d.engine.Stop()
			return
		}

		head := items[0]
		if err := d.queue.Dequeue(ctx, head.ID); err != nil {
			d.log.Error().Err(err).Int64("queue_id", head.ID).Msg("dequeue failed")
		}
		d.log.Info().Int64("episode_id", head.EpisodeID).Msg("auto-playing next")
		if err := d.play(ctx, head.EpisodeID); err != nil {
			d.log.Error().Err(err).Int64("episode_id", head.EpisodeID).Msg("autoplay failed")
		}
		return
	}

	// A new finish can trigger again once playback is progressing.
	if !d.engine.Finished() && d.engine.State() == player.StatePlaying {
		d.lastFinished = 0
	}
}
