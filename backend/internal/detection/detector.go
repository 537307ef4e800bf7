// Package detection manages the grain-quality sidecar process and relays its
// frame and data stream to websocket clients.
package detection

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"dispenser-bridge/backend/pkg/utils"
)

const (
	framePrefix = "FRAME:"
	dataPrefix  = "DATA:"

	// Frames below this length are truncated JPEG fragments, not images.
	minFrameLength = 100

	// Base64 frames are long single lines.
	maxOutputLine = 4 * 1024 * 1024
)

var (
	// ErrAlreadyRunning is returned by Start when the sidecar is active.
	ErrAlreadyRunning = errors.New("detection already running")
	// ErrNotRunning is returned by Stop and Recalibrate when it is not.
	ErrNotRunning = errors.New("detection not running")
)

// Broadcaster fans detection events out to connected clients.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Detector runs the sidecar command and translates its stdout protocol into
// broadcast events.
type Detector struct {
	l           *slog.Logger
	command     []string
	broadcaster Broadcaster

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running bool
}

// New creates a Detector for the given sidecar command line.
func New(l *slog.Logger, command []string, broadcaster Broadcaster) *Detector {
	return &Detector{
		l:           l.With(slog.String("component", "detection")),
		command:     command,
		broadcaster: broadcaster,
	}
}

// Running reports whether the sidecar is active.
func (d *Detector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.running
}

// Start launches the sidecar and begins relaying its output.
func (d *Detector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrAlreadyRunning
	}

	if len(d.command) == 0 {
		return errors.New("no detection command configured")
	}

	cmd := exec.Command(d.command[0], d.command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open sidecar stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open sidecar stdout: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open sidecar stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start sidecar: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.running = true

	d.l.Info("detection sidecar started", slog.Int("pid", cmd.Process.Pid))

	go d.consumeOutput(stdout)
	go d.consumeStderr(stderr)
	go d.wait(cmd)

	d.broadcaster.Broadcast("grainQualityStatus", StatusPayload{IsRunning: true, Message: "Detection started"})

	return nil
}

// Stop terminates the sidecar. The wait goroutine handles cleanup and the
// final status broadcast.
func (d *Detector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return ErrNotRunning
	}

	if err := d.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to stop sidecar: %w", err)
	}

	return nil
}

// Recalibrate asks a running sidecar to resample its background.
func (d *Detector) Recalibrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return ErrNotRunning
	}

	if _, err := io.WriteString(d.stdin, "RECALIBRATE\n"); err != nil {
		return fmt.Errorf("failed to send recalibrate command: %w", err)
	}

	return nil
}

// StatusPayload is broadcast on every sidecar lifecycle change.
type StatusPayload struct {
	IsRunning bool   `json:"isRunning"`
	Message   string `json:"message,omitempty"`
}

// FramePayload carries one base64-encoded JPEG frame.
type FramePayload struct {
	Frame string `json:"frame"`
}

// DataPayload wraps the sidecar's parsed detection metrics.
type DataPayload struct {
	ParsedData json.RawMessage `json:"parsed_data"`
}

// consumeOutput relays stdout lines until the pipe closes. Lines arrive in
// arbitrary read chunks, the scanner reassembles them.
func (d *Detector) consumeOutput(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxOutputLine)

	for scanner.Scan() {
		d.handleLine(strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		d.l.Error("sidecar stdout read failed", utils.ErrAttr(err))
	}
}

func (d *Detector) handleLine(line string) {
	switch {
	case strings.HasPrefix(line, framePrefix):
		frame := line[len(framePrefix):]
		if len(frame) < minFrameLength {
			d.l.Debug("discarding truncated frame", slog.Int("length", len(frame)))

			return
		}

		d.broadcaster.Broadcast("grainQualityFrame", FramePayload{Frame: frame})

	case strings.HasPrefix(line, dataPrefix):
		payload := line[len(dataPrefix):]
		if !json.Valid([]byte(payload)) {
			d.l.Warn("discarding malformed sidecar data line")

			return
		}

		d.broadcaster.Broadcast("grainQualityData", DataPayload{ParsedData: json.RawMessage(payload)})

	case line != "":
		d.l.Debug("sidecar output", slog.String("line", line))
	}
}

func (d *Detector) consumeStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			d.l.Warn("sidecar stderr", slog.String("line", line))
		}
	}
}

// wait reaps the sidecar and announces the transition back to idle.
func (d *Detector) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	d.mu.Lock()
	d.running = false
	d.cmd = nil
	d.stdin = nil
	d.mu.Unlock()

	if err != nil {
		d.l.Info("detection sidecar exited", utils.ErrAttr(err))
	} else {
		d.l.Info("detection sidecar exited")
	}

	d.broadcaster.Broadcast("grainQualityStatus", StatusPayload{IsRunning: false, Message: "Detection stopped"})
}
