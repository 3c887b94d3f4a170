// Package cache maps remote audio and image URLs to locally cached
// files, downloading on miss.
package cache

import (
	"fmt"
)

// ErrorKind classifies cache failures.
type ErrorKind int

const (
	// KindDownload covers transport failures and bad responses.
	KindDownload ErrorKind = iota
	// KindIO covers filesystem failures while writing or moving files.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindDownload:
		return "download"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a cache failure tagged with its kind and the source URL.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache: %s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
