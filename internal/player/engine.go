// Package player drives stateful audio playback through a single active
// session.
package player

import (
	"sync"
	"time"
)

// State is the playback state machine's current state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Output is the audio backend a session drives. Open replaces whatever
// source was loaded before; Drained reports that the loaded source has
// played to its end.
type Output interface {
	Open(path string) error
	Pause() error
	Resume() error
	Stop() error
	SetVolume(volume float64) error
	SetSpeed(speed float64) error
	Seek(pos time.Duration) error
	Position() time.Duration
	Drained() bool
}

// Engine owns at most one active playback session. Starting a new one
// always tears the previous one down first; control operations without a
// session are benign no-ops.
type Engine struct {
	mu        sync.Mutex
	out       Output
	state     State
	active    bool
	episodeID int64 // 0 when no session
	speed     float64
	duration  time.Duration
}

// NewEngine returns a stopped engine over the given output backend.
func NewEngine(out Output) *Engine {
	return &Engine{out: out, speed: 1.0}
}

// Play starts a new session for the audio file at path. Allowed from any
// state; an existing session is stopped unconditionally first. The
// remembered playback speed carries over to the new session.
func (e *Engine) Play(path string, episodeID int64, durationSeconds int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		_ = e.out.Stop()
		e.active = false
	}

	if err := e.out.Open(path); err != nil {
		e.state = StateStopped
		e.episodeID = 0
		e.duration = 0
		return err
	}
	_ = e.out.SetSpeed(e.speed)

	e.active = true
	e.state = StatePlaying
	e.episodeID = episodeID
	e.duration = time.Duration(durationSeconds) * time.Second
	return nil
}

// Pause suspends playback. Only meaningful while playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active || e.state != StatePlaying {
		return
	}
	if err := e.out.Pause(); err == nil {
		e.state = StatePaused
	}
}

// Resume continues a paused session. A no-op otherwise.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active || e.state != StatePaused {
		return
	}
	if err := e.out.Resume(); err == nil {
		e.state = StatePlaying
	}
}

// Stop tears down the session unconditionally and clears the current
// episode. Safe from any state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		_ = e.out.Stop()
	}
	e.active = false
	e.state = StateStopped
	e.episodeID = 0
	e.duration = 0
}

// SetVolume applies to the active session. Volume is not remembered
// across sessions; callers resend it after Play if they want it kept.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}
	if e.active {
		_ = e.out.SetVolume(volume)
	}
}

// SetSpeed applies to the active session and persists as the default for
// the next Play.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if speed < 0.25 {
		speed = 0.25
	} else if speed > 4.0 {
		speed = 4.0
	}
	e.speed = speed
	if e.active {
		_ = e.out.SetSpeed(speed)
	}
}

// Seek moves the active session to an absolute position.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	if pos < 0 {
		pos = 0
	}
	_ = e.out.Seek(pos)
}

// SkipForward seeks ahead, clamping to the known duration when one was
// supplied at Play time.
func (e *Engine) SkipForward(seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	pos := e.out.Position() + time.Duration(seconds)*time.Second
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	_ = e.out.Seek(pos)
}

// SkipBackward seeks back, never past the start.
func (e *Engine) SkipBackward(seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	pos := e.out.Position() - time.Duration(seconds)*time.Second
	if pos < 0 {
		pos = 0
	}
	_ = e.out.Seek(pos)
}

// Finished reports that the session played itself to completion: the
// output is drained while the engine still considers itself playing. A
// paused or stopped session is never finished.
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && e.state == StatePlaying && e.out.Drained()
}

// Position returns the live playback position, zero without a session.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return 0
	}
	return e.out.Position()
}

// Duration returns the target duration supplied at Play time.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentEpisodeID returns the playing episode's id, 0 when no session
// is active.
func (e *Engine) CurrentEpisodeID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episodeID
}

// Speed returns the remembered playback speed.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}
