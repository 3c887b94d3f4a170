package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rcast/internal/logging"
)

// MPV is an Output backed by an mpv subprocess controlled over its JSON
// IPC socket. The process runs in idle mode so loading a new file never
// requires a restart.
type MPV struct {
	mu         sync.Mutex
	cmd        *exec.Cmd
	socketPath string
	drained    bool
	position   time.Duration
	eventStop  chan struct{}
	log        zerolog.Logger
}

type mpvCommand struct {
	Command []interface{} `json:"command"`
}

type mpvResponse struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

type mpvEvent struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// NewMPV returns an mpv-backed output. The subprocess starts lazily on
// the first Open.
func NewMPV() *MPV {
	return &MPV{
		socketPath: fmt.Sprintf("/tmp/rcast-mpv-%d", os.Getpid()),
		log:        logging.WithComponent("mpv"),
	}
}

func (m *MPV) ensureProcess() error {
	if m.cmd != nil {
		return nil
	}

	os.Remove(m.socketPath)

	cmd := exec.Command("mpv",
		"--no-video",
		"--really-quiet",
		"--no-terminal",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--idle",
		"--keep-open=no",
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("player: start mpv: %w", err)
	}

	// mpv creates the socket asynchronously.
	ready := false
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(m.socketPath); err == nil {
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		cmd.Process.Kill()
		cmd.Wait()
		return fmt.Errorf("player: mpv socket not created")
	}

	m.cmd = cmd
	m.eventStop = make(chan struct{})
	go m.watchEvents(m.eventStop)
	return nil
}

func (m *MPV) send(cmd mpvCommand) (*mpvResponse, error) {
	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		return nil, fmt.Errorf("player: connect to mpv: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("player: write command: %w", err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("player: read response: %w", err)
		}
		var resp mpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		// Event lines have no error field; command replies always do.
		if resp.Error == "" {
			continue
		}
		if resp.Error != "success" {
			return &resp, fmt.Errorf("player: mpv: %s", resp.Error)
		}
		return &resp, nil
	}
}

func (m *MPV) setProperty(name string, value interface{}) error {
	_, err := m.send(mpvCommand{Command: []interface{}{"set_property", name, value}})
	return err
}

// watchEvents follows the IPC socket for end-file events. mpv emits
// end-file for every unload, including the one caused by our own stop
// command; only reason "eof" means the track actually played out, so
// only that marks the output drained.
func (m *MPV) watchEvents(stop chan struct{}) {
	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		m.log.Error().Err(err).Msg("event connection failed")
		return
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return
		}

		var event mpvEvent
		if json.Unmarshal(line, &event) != nil {
			continue
		}
		if event.Event == "end-file" && event.Reason == "eof" {
			m.mu.Lock()
			m.drained = true
			m.mu.Unlock()
		}
	}
}

// Open loads path into mpv, starting the subprocess if needed, and
// begins playback.
func (m *MPV) Open(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureProcess(); err != nil {
		return err
	}

	if _, err := m.send(mpvCommand{Command: []interface{}{"loadfile", path}}); err != nil {
		return err
	}
	if err := m.setProperty("pause", false); err != nil {
		return err
	}

	m.drained = false
	m.position = 0
	return nil
}

func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

func (m *MPV) Resume() error {
	return m.setProperty("pause", false)
}

// Stop unloads the current file but keeps mpv idling for the next Open.
func (m *MPV) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return nil
	}
	_, err := m.send(mpvCommand{Command: []interface{}{"stop"}})
	m.drained = false
	m.position = 0
	return err
}

func (m *MPV) SetVolume(volume float64) error {
	return m.setProperty("volume", volume)
}

func (m *MPV) SetSpeed(speed float64) error {
	return m.setProperty("speed", speed)
}

func (m *MPV) Seek(pos time.Duration) error {
	_, err := m.send(mpvCommand{Command: []interface{}{"seek", pos.Seconds(), "absolute"}})
	return err
}

// Position queries mpv for the live playback position, falling back to
// the last known value when the property is momentarily unavailable.
func (m *MPV) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.send(mpvCommand{Command: []interface{}{"get_property", "time-pos"}})
	if err != nil {
		return m.position
	}
	if secs, ok := resp.Data.(float64); ok && secs >= 0 {
		m.position = time.Duration(secs * float64(time.Second))
	}
	return m.position
}

func (m *MPV) Drained() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drained
}

// Close shuts the subprocess down. The output is unusable afterwards.
func (m *MPV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return nil
	}
	if m.eventStop != nil {
		close(m.eventStop)
	}

	m.send(mpvCommand{Command: []interface{}{"quit"}})

	done := make(chan error, 1)
	go func() { done <- m.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		m.cmd.Process.Kill()
		<-done
	}

	m.cmd = nil
	os.Remove(m.socketPath)
	return nil
}
