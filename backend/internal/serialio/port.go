// Package serialio owns the serial link to the dispenser controller: opening
// the port, decoding its line stream and writing command tokens.
package serialio

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Conn wraps the serial port. Writes are serialized so a multi-token command
// sequence is never interleaved with another writer's tokens.
type Conn struct {
	mu     sync.Mutex
	rw     io.ReadWriteCloser
	failed error
}

// Dial opens the named serial port at the given baud rate, 8N1.
func Dial(portName string, baud int) (*Conn, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return NewConn(port), nil
}

// NewConn wraps an already-open transport. Used directly in tests.
func NewConn(rw io.ReadWriteCloser) *Conn {
	return &Conn{rw: rw}
}

// NewFailedConn returns a connection whose reads and writes fail immediately
// with err. Lets the process keep serving clients when the port cannot be
// opened; command writes surface the open error instead of hanging.
func NewFailedConn(err error) *Conn {
	return &Conn{failed: err}
}

// WriteSequence writes the given command tokens, newline-terminated, as one
// atomic unit. After a transport error the connection fails fast: every later
// write returns the first error without touching the port.
func (c *Conn) WriteSequence(tokens ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed != nil {
		return c.failed
	}

	for _, token := range tokens {
		if _, err := c.rw.Write([]byte(token + "\n")); err != nil {
			c.failed = fmt.Errorf("failed to write serial command %q: %w", token, err)

			return c.failed
		}
	}

	return nil
}

// Read reads raw bytes from the port.
func (c *Conn) Read(p []byte) (int, error) {
	if c.rw == nil {
		return 0, c.failed
	}

	return c.rw.Read(p)
}

// Close closes the underlying port.
func (c *Conn) Close() error {
	if c.rw == nil {
		return nil
	}

	return c.rw.Close()
}
