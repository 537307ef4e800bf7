package utils

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrAttr returns a slog attribute for an error.
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

// SlogReplacer normalizes time and duration attributes to human-readable strings.
func SlogReplacer(groups []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindTime:
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))
	case slog.KindDuration:
		a.Value = slog.StringValue(a.Value.Duration().String())
	}

	return a
}

// LogOnError invokes fn and logs msg with the returned error, if any.
// Useful for deferred Close calls.
func LogOnError(l *slog.Logger, fn func() error, msg string) {
	if err := fn(); err != nil {
		l.Error(msg, ErrAttr(err))
	}
}

// SlogWriter adapts a slog.Logger to io.Writer so that libraries expecting
// a writer (e.g. dbmate) log through slog.
type SlogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter creates a writer that logs every non-empty line at info level.
func NewSlogWriter(l *slog.Logger) *SlogWriter {
	return &SlogWriter{logger: l}
}

func (w *SlogWriter) Write(p []byte) (int, error) {
	for line := range strings.SplitSeq(string(p), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		w.logger.Info(line)
	}

	return len(p), nil
}

// LogLimiter suppresses repeated identical log lines. The first occurrence of
// a key is reported, repeats within the window are counted silently. Safe for
// concurrent use.
type LogLimiter struct {
	mu     sync.Mutex
	l      *slog.Logger
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewLogLimiter creates a limiter with the given suppression window.
func NewLogLimiter(l *slog.Logger, window time.Duration) *LogLimiter {
	return &LogLimiter{
		l:      l,
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Error logs msg with the error attached unless the same msg/error pair was
// logged within the window.
func (r *LogLimiter) Error(msg string, err error) {
	key := msg
	if err != nil {
		key += ": " + err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if at, seen := r.last[key]; seen && now.Sub(at) < r.window {
		return
	}

	r.last[key] = now
	r.l.Error(msg, ErrAttr(err))
}
