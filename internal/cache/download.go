package cache

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"
)

// ProgressFunc reports bytes received so far and the total when known
// (-1 otherwise).
type ProgressFunc func(current, total int64)

// progressReader wraps a response body and invokes the callback at most
// once per second.
type progressReader struct {
	reader   io.Reader
	total    int64
	current  int64
	callback ProgressFunc
	lastTime time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if now := time.Now(); now.Sub(pr.lastTime) >= time.Second {
		pr.lastTime = now
		if pr.callback != nil {
			pr.callback(pr.current, pr.total)
		}
	}
	return n, err
}

// downloader performs blocking HTTP downloads through a temp file so a
// partial body never lands at the destination path.
type downloader struct {
	client *http.Client
}

func newDownloader(client *http.Client) *downloader {
	if client == nil {
		// Long timeout: episode audio can run to hundreds of megabytes.
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	return &downloader{client: client}
}

// fetch downloads url to dest. Transport failures and bad statuses map
// to KindDownload, filesystem failures to KindIO.
func (d *downloader) fetch(ctx context.Context, url, dest string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Kind: KindDownload, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "rcast/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return &Error{Kind: KindDownload, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindDownload, URL: url, Err: &statusError{resp.StatusCode}}
	}

	tempPath := dest + ".part"
	out, err := os.Create(tempPath)
	if err != nil {
		return &Error{Kind: KindIO, URL: url, Err: err}
	}

	body := &progressReader{
		reader:   resp.Body,
		total:    resp.ContentLength,
		callback: progress,
		lastTime: time.Now(),
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(tempPath)
		return &Error{Kind: KindDownload, URL: url, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return &Error{Kind: KindIO, URL: url, Err: err}
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return &Error{Kind: KindIO, URL: url, Err: err}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
