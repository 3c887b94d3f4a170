package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Images caches show artwork on disk, keyed by a content hash of the URL
// plus the extension inferred from it.
type Images struct {
	dir        string
	downloader *downloader
	group      singleflight.Group
}

// NewImages returns an image cache rooted at dir, creating it if absent.
// client may be nil.
func NewImages(dir string, client *http.Client) (*Images, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Kind: KindIO, Err: err}
	}
	return &Images{dir: dir, downloader: newDownloader(client)}, nil
}

func imageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	ext := "jpg"
	if i := strings.LastIndex(url, "."); i >= 0 && i < len(url)-1 {
		candidate := url[i+1:]
		if len(candidate) <= 4 && !strings.ContainsAny(candidate, "/?") {
			ext = candidate
		}
	}
	return fmt.Sprintf("%x.%s", sum[:8], ext)
}

// Resolve returns the local path for an image URL, downloading on miss.
func (c *Images) Resolve(ctx context.Context, url string) (string, error) {
	path, err, _ := c.group.Do(url, func() (interface{}, error) {
		dest := filepath.Join(c.dir, imageKey(url))
		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}
		if err := c.downloader.fetch(ctx, url, dest, nil); err != nil {
			return "", err
		}
		return dest, nil
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}
