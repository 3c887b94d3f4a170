package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"rcast/internal/logging"
)

// Audio caches episode audio on disk, keyed by episode id plus a hash of
// the source URL so a changed URL never serves stale bytes.
type Audio struct {
	dir        string
	downloader *downloader
	group      singleflight.Group
	log        zerolog.Logger
}

// NewAudio returns an audio cache rooted at dir, creating it if absent.
// client may be nil.
func NewAudio(dir string, client *http.Client) (*Audio, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Kind: KindIO, Err: err}
	}
	return &Audio{
		dir:        dir,
		downloader: newDownloader(client),
		log:        logging.WithComponent("audiocache"),
	}, nil
}

func hashURL(url string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(url))
	return h.Sum64()
}

func (a *Audio) versionedPath(url string, episodeID int64) string {
	return filepath.Join(a.dir, fmt.Sprintf("episode_%d_%d.mp3", episodeID, hashURL(url)))
}

func (a *Audio) legacyPath(episodeID int64) string {
	return filepath.Join(a.dir, fmt.Sprintf("episode_%d.mp3", episodeID))
}

func (a *Audio) sidecarPath(episodeID int64) string {
	return filepath.Join(a.dir, fmt.Sprintf("episode_%d.url", episodeID))
}

// Resolve returns the local path for an episode's audio, downloading it
// at most once per (episode, url) pair. Concurrent resolves for the same
// key are collapsed into one download.
func (a *Audio) Resolve(ctx context.Context, url string, episodeID int64) (string, error) {
	key := fmt.Sprintf("%d:%d", episodeID, hashURL(url))
	path, err, _ := a.group.Do(key, func() (interface{}, error) {
		return a.resolve(ctx, url, episodeID)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (a *Audio) resolve(ctx context.Context, url string, episodeID int64) (string, error) {
	versioned := a.versionedPath(url, episodeID)

	// Versioned hit: done, no re-validation.
	if _, err := os.Stat(versioned); err == nil {
		return versioned, nil
	}

	// One-time migration of a pre-versioning cache file. The sidecar
	// records the URL the legacy file was downloaded for; without proof
	// of a match the file is stale.
	legacy := a.legacyPath(episodeID)
	if _, err := os.Stat(legacy); err == nil {
		sidecar := a.sidecarPath(episodeID)
		if cached, err := os.ReadFile(sidecar); err == nil && string(cached) == url {
			if err := os.Rename(legacy, versioned); err == nil {
				os.Remove(sidecar)
				a.log.Debug().Int64("episode_id", episodeID).Msg("migrated legacy cache file")
				return versioned, nil
			}
		}
		a.log.Debug().Int64("episode_id", episodeID).Msg("discarding stale legacy cache file")
		os.Remove(legacy)
		os.Remove(sidecar)
	}

	a.log.Info().Int64("episode_id", episodeID).Str("url", url).Msg("downloading audio")
	if err := a.downloader.fetch(ctx, url, versioned, nil); err != nil {
		return "", err
	}
	return versioned, nil
}
