// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the base logger exactly once. level falls back to
// info when empty or unparseable; out defaults to stderr.
func Configure(level string, out io.Writer) {
	once.Do(func() {
		lvl := zerolog.InfoLevel
		if level != "" {
			if parsed, err := zerolog.ParseLevel(level); err == nil {
				lvl = parsed
			}
		}
		zerolog.SetGlobalLevel(lvl)
		zerolog.TimeFieldFormat = time.RFC3339

		if out == nil {
			out = os.Stderr
		}
		base = zerolog.New(out).With().
			Timestamp().
			Str("service", "rcast").
			Logger()
	})
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	Configure("", nil)
	return base.With().Str("component", component).Logger()
}
