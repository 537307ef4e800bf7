// Package session tracks the state of the current dispensing cycle and the
// last known readings replayed to newly connected clients.
package session

import (
	"sync"
	"time"
)

// DebounceWindow is how long repeated reports of the same tag are ignored.
const DebounceWindow = 500 * time.Millisecond

// DefaultThreshold is the weight cutoff in grams used until a tag-specific
// threshold arrives.
const DefaultThreshold = 50.0

// Snapshot holds the last known readings worth replaying to a client that
// connects mid-stream. Nil fields have never been observed.
type Snapshot struct {
	Distance        *float64
	Stock           *string
	MoistureRaw     *int
	MoisturePercent *int
}

// State is the mutable session state shared between the serial event loop and
// the websocket layer. All methods are safe for concurrent use.
type State struct {
	mu sync.Mutex

	activeTag  string
	recentTags map[string]time.Time
	threshold  float64
	latched    bool

	snapshot Snapshot

	now func() time.Time
}

// NewState returns a State with the default threshold and no active cycle.
func NewState() *State {
	return &State{
		recentTags: make(map[string]time.Time),
		threshold:  DefaultThreshold,
		now:        time.Now,
	}
}

// ObserveTag records a scanned tag. It returns false when the same tag was
// already accepted within the debounce window; otherwise it starts a new
// cycle for the tag and returns true. Tags are debounced independently, so an
// interleaved scan of another card never re-opens the window for the first.
// Rejected duplicates do not refresh the window: a card held on the reader is
// accepted again once the window since its last accepted scan has passed.
// A new cycle clears the stop latch; the threshold keeps its current value
// until the stored one for the tag arrives.
func (s *State) ObserveTag(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for seen, last := range s.recentTags {
		if now.Sub(last) >= DebounceWindow {
			delete(s.recentTags, seen)
		}
	}

	if _, ok := s.recentTags[tag]; ok {
		return false
	}

	s.recentTags[tag] = now
	s.activeTag = tag
	s.latched = false

	return true
}

// BeginCycle clears the stop latch. Called when a dispense command starts a
// new cycle without a fresh tag scan; the current threshold is kept.
func (s *State) BeginCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latched = false
}

// ActiveTag returns the tag of the current cycle, empty when none.
func (s *State) ActiveTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeTag
}

// SetThreshold overrides the cutoff for the current cycle.
func (s *State) SetThreshold(grams float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threshold = grams
}

// Threshold returns the current cutoff in grams.
func (s *State) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.threshold
}

// ShouldStop reports whether the given weight crosses the threshold for the
// first time this cycle. The latch ensures a single stop per cycle: once it
// returns true, later readings return false until a new tag starts a cycle.
func (s *State) ShouldStop(grams float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latched || grams < s.threshold {
		return false
	}

	s.latched = true

	return true
}

// SetDistance records the latest ultrasonic reading.
func (s *State) SetDistance(cm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Distance = &cm
}

// SetStock records the latest stock status.
func (s *State) SetStock(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Stock = &status
}

// SetMoisture records the latest moisture reading.
func (s *State) SetMoisture(raw, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.MoistureRaw = &raw
	s.snapshot.MoisturePercent = &percent
}

// Snapshot returns a copy of the last known readings.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := s.snapshot
	if s.snapshot.Distance != nil {
		v := *s.snapshot.Distance
		copied.Distance = &v
	}

	if s.snapshot.Stock != nil {
		v := *s.snapshot.Stock
		copied.Stock = &v
	}

	if s.snapshot.MoistureRaw != nil {
		v := *s.snapshot.MoistureRaw
		copied.MoistureRaw = &v
	}

	if s.snapshot.MoisturePercent != nil {
		v := *s.snapshot.MoisturePercent
		copied.MoisturePercent = &v
	}

	return copied
}
