package serialio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"dispenser-bridge/backend/pkg/utils"
)

// Reader pumps decoded lines from the serial connection into a channel.
type Reader struct {
	l    *slog.Logger
	conn *Conn
}

// NewReader returns a Reader over the given connection.
func NewReader(l *slog.Logger, conn *Conn) *Reader {
	return &Reader{
		l:    l.With(slog.String("component", "serial-reader")),
		conn: conn,
	}
}

// Run reads until the context is canceled or the port fails, sending each
// non-empty line to out. Blank lines are dropped here so downstream only sees
// lines with content. Run closes out on return.
func (r *Reader) Run(ctx context.Context, out chan<- string) error {
	defer close(out)

	var lineBuf LineBuffer

	buf := make([]byte, 1024)
	lastOverflows := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			r.l.Error("serial read failed", utils.ErrAttr(err))

			return fmt.Errorf("failed to read from serial port: %w", err)
		}

		for _, line := range lineBuf.Feed(buf[:n]) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			select {
			case out <- line:
			case <-ctx.Done():
				return nil
			}
		}

		if overflows := lineBuf.Overflows(); overflows != lastOverflows {
			r.l.Warn("discarded oversized serial line", slog.Int("overflows", overflows))
			lastOverflows = overflows
		}
	}
}
