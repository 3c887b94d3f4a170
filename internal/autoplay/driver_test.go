package autoplay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcast/internal/models"
	"rcast/internal/player"
)

type fakeEngine struct {
	finished  bool
	state     player.State
	episodeID int64
	stops     int
}

func (f *fakeEngine) Finished() bool          { return f.finished }
func (f *fakeEngine) State() player.State     { return f.state }
func (f *fakeEngine) CurrentEpisodeID() int64 { return f.episodeID }
func (f *fakeEngine) Stop()                   { f.stops++; f.state = player.StateStopped }

type fakeQueue struct {
	items   []models.QueueItem
	listErr error
	removed []int64
}

func (f *fakeQueue) ListQueue(ctx context.Context) ([]models.QueueItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.QueueItem(nil), f.items...), nil
}

func (f *fakeQueue) Dequeue(ctx context.Context, queueID int64) error {
	f.removed = append(f.removed, queueID)
	for i, item := range f.items {
		if item.ID == queueID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func TestTickPlaysNextFromQueue(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{items: []models.QueueItem{
		{ID: 1, EpisodeID: 20, Position: 0},
		{ID: 2, EpisodeID: 30, Position: 1},
	}}

	var played []int64
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played = append(played, episodeID)
		return nil
	})

	d.Tick(context.Background(), true)

	assert.Equal(t, []int64{20}, played, "exactly the head item plays")
	assert.Equal(t, []int64{1}, queue.removed)
	require.Len(t, queue.items, 1)
	assert.Equal(t, int64(30), queue.items[0].EpisodeID)
}

func TestTickDoesNotRetriggerWhileStillFinished(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{items: []models.QueueItem{
		{ID: 1, EpisodeID: 20},
		{ID: 2, EpisodeID: 30},
	}}

	var played []int64
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played = append(played, episodeID)
		return nil
	})

	// The play callback does not change the engine's episode id here, so
	// the driver still sees the same finished episode on later ticks.
	d.Tick(context.Background(), true)
	d.Tick(context.Background(), true)
	d.Tick(context.Background(), true)

	assert.Equal(t, []int64{20}, played, "same finished episode triggers once")
}

func TestTickGuardResetsWhenPlaying(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{items: []models.QueueItem{
		{ID: 1, EpisodeID: 20},
		{ID: 2, EpisodeID: 30},
	}}

	var played []int64
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played = append(played, episodeID)
		// Playback actually switches to the new episode.
		engine.episodeID = episodeID
		engine.finished = false
		return nil
	})

	d.Tick(context.Background(), true) // plays 20
	d.Tick(context.Background(), true) // playing, clears the guard
	engine.finished = true
	d.Tick(context.Background(), true) // plays 30

	assert.Equal(t, []int64{20, 30}, played)
}

func TestTickEmptyQueueStops(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{}

	var played int
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played++
		return nil
	})

	d.Tick(context.Background(), true)

	assert.Equal(t, 1, engine.stops)
	assert.Zero(t, played)
}

func TestTickDisabled(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{items: []models.QueueItem{{ID: 1, EpisodeID: 20}}}

	var played int
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played++
		return nil
	})

	d.Tick(context.Background(), false)

	assert.Zero(t, played)
	assert.Zero(t, engine.stops)
	assert.Len(t, queue.items, 1)
}

func TestTickQueueErrorDegradesToEmpty(t *testing.T) {
	engine := &fakeEngine{finished: true, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{listErr: errors.New("db locked")}

	var played int
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played++
		return nil
	})

	d.Tick(context.Background(), true)

	assert.Zero(t, played)
	assert.Equal(t, 1, engine.stops, "read failure is treated as an empty queue")
}

func TestTickNotFinishedDoesNothing(t *testing.T) {
	engine := &fakeEngine{finished: false, state: player.StatePlaying, episodeID: 10}
	queue := &fakeQueue{items: []models.QueueItem{{ID: 1, EpisodeID: 20}}}

	var played int
	d := New(engine, queue, func(ctx context.Context, episodeID int64) error {
		played++
		return nil
	})

	d.Tick(context.Background(), true)
	assert.Zero(t, played)
}
