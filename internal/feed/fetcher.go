// Package feed fetches and parses podcast RSS documents and computes the
// incremental episode set for a show.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// ErrorKind classifies fetch failures so callers can branch on cause.
type ErrorKind int

const (
	// KindNetwork covers transport, timeout, and non-2xx responses.
	KindNetwork ErrorKind = iota
	// KindParse covers malformed feed content.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is a fetch failure tagged with its kind and the feed URL.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("feed: %s error fetching %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Feed is a parsed RSS channel document.
type Feed struct {
	Title       string
	Description string
	ImageURL    string
	Items       []Item
}

// Item is one playable feed item. Items without an enclosure never make
// it this far.
type Item struct {
	Title       string
	Description string
	URL         string
	AudioType   string
	PublishDate int64
	Duration    int64 // seconds
}

// Fetcher performs blocking feed fetches. A shared rate limiter keeps
// sync cycles polite to feed hosts.
type Fetcher struct {
	client  *http.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
}

// NewFetcher returns a Fetcher with a bounded request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
}

// Fetch performs a single HTTP GET of url and parses the body as an RSS
// channel. It has no side effects and does not retry.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Feed, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "rcast/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindParse, URL: url, Err: err}
	}

	return extract(parsed), nil
}

// extract converts a parsed gofeed document into the channel model shared
// by the initial-add and re-sync paths.
func extract(parsed *gofeed.Feed) *Feed {
	doc := &Feed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Items:       make([]Item, 0, len(parsed.Items)),
	}

	if parsed.Image != nil {
		doc.ImageURL = parsed.Image.URL
	}
	if doc.ImageURL == "" && parsed.ITunesExt != nil {
		doc.ImageURL = parsed.ITunesExt.Image
	}

	now := time.Now().Unix()
	for _, item := range parsed.Items {
		// No enclosure means no playable media. Silent skip.
		if len(item.Enclosures) == 0 || item.Enclosures[0].URL == "" {
			continue
		}
		enclosure := item.Enclosures[0]

		title := item.Title
		if title == "" {
			title = "Untitled"
		}

		audioType := enclosure.Type
		if audioType == "" {
			audioType = "audio/mpeg"
		}

		// Unparseable dates fall back to fetch time, which makes them
		// look just-published. Accepted approximation.
		publish := now
		if item.PublishedParsed != nil {
			publish = item.PublishedParsed.Unix()
		}

		var duration int64
		if item.ITunesExt != nil {
			duration = ParseDuration(item.ITunesExt.Duration)
		}

		doc.Items = append(doc.Items, Item{
			Title:       title,
			Description: item.Description,
			URL:         enclosure.URL,
			AudioType:   audioType,
			PublishDate: publish,
			Duration:    duration,
		})
	}

	return doc
}
