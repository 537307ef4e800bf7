// Package thresholds persists per-tag weight cutoffs for dispensing cycles.
package thresholds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispenser-bridge/backend/pkg/utils"
)

// DefaultThreshold is returned when neither the tag nor a stored default has
// a value, in grams.
const DefaultThreshold = 50.0

const defaultSettingKey = "default_threshold"

const queryTimeout = 2 * time.Second

// Store reads and writes weight thresholds. Lookups never fail: on any error
// the stored or built-in default is returned and the error is logged, rate
// limited so a dead database does not flood the log.
type Store struct {
	l       *slog.Logger
	db      *sql.DB
	limiter *utils.LogLimiter
}

// NewStore returns a Store over the given database handle.
func NewStore(l *slog.Logger, db *sql.DB) *Store {
	l = l.With(slog.String("component", "thresholds"))

	return &Store{
		l:       l,
		db:      db,
		limiter: utils.NewLogLimiter(l, time.Minute),
	}
}

// ThresholdFor returns the cutoff for the given tag. Missing tags fall back
// to the stored default, then to DefaultThreshold. Errors degrade the same
// way, so a dispensing cycle always has a usable cutoff.
func (s *Store) ThresholdFor(ctx context.Context, tag string) float64 {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var grams float64

	err := s.db.QueryRowContext(ctx,
		"SELECT weight_threshold FROM customers WHERE tag = $1", tag,
	).Scan(&grams)
	if err == nil {
		return grams
	}

	if !errors.Is(err, sql.ErrNoRows) {
		s.limiter.Error("threshold lookup failed", err)

		return DefaultThreshold
	}

	return s.storedDefault(ctx)
}

// SaveThreshold upserts the cutoff for the given tag.
func (s *Store) SaveThreshold(ctx context.Context, tag string, grams float64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (tag, weight_threshold) VALUES ($1, $2)
		 ON CONFLICT (tag) DO UPDATE SET weight_threshold = $2`,
		tag, grams,
	)
	if err != nil {
		return fmt.Errorf("failed to save threshold for tag %s: %w", tag, err)
	}

	return nil
}

// SetDefaultThreshold stores the fallback cutoff used for unknown tags.
func (s *Store) SetDefaultThreshold(ctx context.Context, grams float64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = $2`,
		defaultSettingKey, grams,
	)
	if err != nil {
		return fmt.Errorf("failed to save default threshold: %w", err)
	}

	return nil
}

func (s *Store) storedDefault(ctx context.Context) float64 {
	var grams float64

	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = $1", defaultSettingKey,
	).Scan(&grams)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.limiter.Error("default threshold lookup failed", err)
		}

		return DefaultThreshold
	}

	return grams
}
