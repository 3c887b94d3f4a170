package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcast/internal/feed"
	"rcast/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	shows     []models.Show
	episodes  map[int64][]models.Episode
	nextID    int64
	listErr   error
	insertErr error
}

func newFakeStore(shows ...models.Show) *fakeStore {
	return &fakeStore{shows: shows, episodes: make(map[int64][]models.Episode), nextID: 100}
}

func (f *fakeStore) ListShows(ctx context.Context) ([]models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Show(nil), f.shows...), nil
}

func (f *fakeStore) ListEpisodes(ctx context.Context, showID int64) ([]models.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Episode(nil), f.episodes[showID]...), nil
}

func (f *fakeStore) AddShow(ctx context.Context, show models.Show) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	show.ID = f.nextID
	f.shows = append(f.shows, show)
	return show.ID, nil
}

func (f *fakeStore) AddEpisode(ctx context.Context, ep models.Episode) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	ep.ID = f.nextID
	f.episodes[ep.ShowID] = append(f.episodes[ep.ShowID], ep)
	return ep.ID, nil
}

func (f *fakeStore) episodeCount(showID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.episodes[showID])
}

type fakeFetcher struct {
	mu      sync.Mutex
	docs    map[string]*feed.Feed
	errs    map[string]error
	fetches int
	block   chan struct{} // when set, Fetch waits until closed
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*feed.Feed, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if doc, ok := f.docs[url]; ok {
		return doc, nil
	}
	return &feed.Feed{}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestSyncAllInsertsNewEpisodes(t *testing.T) {
	store := newFakeStore(models.Show{ID: 1, URL: "https://example.com/a", Title: "A"})
	fetcher := &fakeFetcher{docs: map[string]*feed.Feed{
		"https://example.com/a": {Items: []feed.Item{
			{URL: "https://example.com/ep1.mp3", Title: "ep1"},
			{URL: "https://example.com/ep2.mp3", Title: "ep2"},
		}},
	}}

	c := New(store, fetcher)
	c.SyncAll(context.Background())

	assert.Equal(t, 2, store.episodeCount(1))
	assert.False(t, c.IsSyncing())
}

func TestSyncAllIsIdempotent(t *testing.T) {
	store := newFakeStore(models.Show{ID: 1, URL: "https://example.com/a", Title: "A"})
	fetcher := &fakeFetcher{docs: map[string]*feed.Feed{
		"https://example.com/a": {Items: []feed.Item{
			{URL: "https://example.com/ep1.mp3", Title: "ep1"},
		}},
	}}

	c := New(store, fetcher)
	c.SyncAll(context.Background())
	c.SyncAll(context.Background())

	assert.Equal(t, 1, store.episodeCount(1), "second run with unchanged feed inserts nothing")
}

func TestSyncAllSkipsFailedShow(t *testing.T) {
	store := newFakeStore(
		models.Show{ID: 1, URL: "https://example.com/bad", Title: "Bad"},
		models.Show{ID: 2, URL: "https://example.com/good", Title: "Good"},
	)
	fetcher := &fakeFetcher{
		errs: map[string]error{"https://example.com/bad": errors.New("boom")},
		docs: map[string]*feed.Feed{
			"https://example.com/good": {Items: []feed.Item{
				{URL: "https://example.com/ep.mp3", Title: "ep"},
			}},
		},
	}

	c := New(store, fetcher)
	c.SyncAll(context.Background())

	assert.Equal(t, 0, store.episodeCount(1))
	assert.Equal(t, 1, store.episodeCount(2), "failure of one show must not abort the rest")
}

func TestSyncAllAbortsCycleWhenListFails(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db gone")
	fetcher := &fakeFetcher{}

	c := New(store, fetcher)
	c.SyncAll(context.Background())

	assert.Zero(t, fetcher.fetchCount())
	assert.False(t, c.IsSyncing(), "flag clears even when the cycle aborts")
}

func TestSyncAllSingleFlight(t *testing.T) {
	store := newFakeStore(models.Show{ID: 1, URL: "https://example.com/a", Title: "A"})
	block := make(chan struct{})
	fetcher := &fakeFetcher{block: block}

	c := New(store, fetcher)

	done := make(chan struct{})
	go func() {
		c.SyncAll(context.Background())
		close(done)
	}()

	// Wait for the first cycle to reach its fetch.
	require.Eventually(t, func() bool { return fetcher.fetchCount() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, c.IsSyncing())

	// The racing second call returns immediately without fetching.
	c.SyncAll(context.Background())
	assert.Equal(t, 1, fetcher.fetchCount())

	close(block)
	<-done
	assert.False(t, c.IsSyncing())
}

func TestAddShow(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{docs: map[string]*feed.Feed{
		"https://example.com/new": {
			Title:       "New Show",
			Description: "desc",
			ImageURL:    "https://example.com/img.jpg",
			Items: []feed.Item{
				{URL: "https://example.com/ep1.mp3", Title: "ep1"},
				{URL: "https://example.com/ep2.mp3", Title: "ep2"},
			},
		},
	}}

	c := New(store, fetcher)
	show, err := c.AddShow(context.Background(), "https://example.com/new")
	require.NoError(t, err)

	assert.Positive(t, show.ID)
	assert.Equal(t, "New Show", show.Title)
	assert.Equal(t, "https://example.com/new", show.URL)
	assert.Equal(t, 2, store.episodeCount(show.ID))
}

func TestAddShowFetchFailure(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{errs: map[string]error{"https://example.com/bad": errors.New("down")}}

	c := New(store, fetcher)
	_, err := c.AddShow(context.Background(), "https://example.com/bad")
	require.Error(t, err)
	assert.Empty(t, store.shows)
}
