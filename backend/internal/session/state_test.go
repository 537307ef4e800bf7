package session

import (
	"testing"
	"time"
)

func newTestState(start time.Time) (*State, *time.Time) {
	clock := start

	s := NewState()
	s.now = func() time.Time { return clock }

	return s, &clock
}

func TestObserveTagDebounce(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(time.Unix(1000, 0))

	if !s.ObserveTag("A1B2") {
		t.Fatal("first scan should start a cycle")
	}

	// Same tag 300ms later is a duplicate.
	*clock = clock.Add(300 * time.Millisecond)

	if s.ObserveTag("A1B2") {
		t.Error("scan inside debounce window should be ignored")
	}

	// The rejection did not refresh the window: 300ms later the window since
	// the accepted scan has passed, so a card held on the reader is accepted
	// again.
	*clock = clock.Add(300 * time.Millisecond)

	if !s.ObserveTag("A1B2") {
		t.Error("window is measured from the last accepted scan, not the last rejection")
	}
}

func TestObserveTagDebouncesPerTag(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(time.Unix(1000, 0))

	if !s.ObserveTag("A1B2") {
		t.Fatal("first scan of A should start a cycle")
	}

	*clock = clock.Add(100 * time.Millisecond)

	if !s.ObserveTag("C3D4") {
		t.Fatal("first scan of B should start a cycle")
	}

	// A again, 200ms after its accepted scan: still inside A's window even
	// though another card was accepted in between.
	*clock = clock.Add(100 * time.Millisecond)

	if s.ObserveTag("A1B2") {
		t.Error("interleaved scan must not re-open the window for the first tag")
	}

	if s.ActiveTag() != "C3D4" {
		t.Errorf("ActiveTag() = %q, a rejected scan must not change the cycle", s.ActiveTag())
	}

	// Past A's window both cards are fresh again.
	*clock = clock.Add(DebounceWindow)

	if !s.ObserveTag("A1B2") {
		t.Error("scan outside the tag's own window should start a cycle")
	}
}

func TestObserveTagDifferentTagBypassesDebounce(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(time.Unix(1000, 0))

	s.ObserveTag("A1B2")

	*clock = clock.Add(100 * time.Millisecond)

	if !s.ObserveTag("C3D4") {
		t.Error("a different tag should always start a cycle")
	}

	if s.ActiveTag() != "C3D4" {
		t.Errorf("ActiveTag() = %q, want C3D4", s.ActiveTag())
	}
}

func TestNewCycleClearsLatchKeepsThreshold(t *testing.T) {
	t.Parallel()

	s, clock := newTestState(time.Unix(1000, 0))

	s.ObserveTag("A1B2")
	s.SetThreshold(75)

	if !s.ShouldStop(80) {
		t.Fatal("80g should cross a 75g threshold")
	}

	*clock = clock.Add(time.Second)
	s.ObserveTag("C3D4")

	// The previous cutoff stays in effect until the stored one for the new
	// tag arrives.
	if s.Threshold() != 75 {
		t.Errorf("Threshold() = %v after new cycle, want previous value 75", s.Threshold())
	}

	if !s.ShouldStop(80) {
		t.Error("latch should be clear after a new cycle")
	}
}

func TestShouldStopLatchesOnce(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(time.Unix(1000, 0))
	s.ObserveTag("A1B2")

	if s.ShouldStop(49.9) {
		t.Error("below threshold should not stop")
	}

	if !s.ShouldStop(50) {
		t.Error("reaching the threshold should stop")
	}

	// Every later reading, even heavier, is absorbed by the latch.
	for _, grams := range []float64{51, 120, 50} {
		if s.ShouldStop(grams) {
			t.Errorf("ShouldStop(%v) after latch = true, want false", grams)
		}
	}
}

func TestSnapshotCopies(t *testing.T) {
	t.Parallel()

	s, _ := newTestState(time.Unix(1000, 0))

	if snap := s.Snapshot(); snap.Distance != nil || snap.Stock != nil || snap.MoistureRaw != nil {
		t.Fatal("fresh state should have an empty snapshot")
	}

	s.SetDistance(12.5)
	s.SetStock("sufficient")
	s.SetMoisture(512, 45)

	snap := s.Snapshot()
	if snap.Distance == nil || *snap.Distance != 12.5 {
		t.Errorf("Distance = %v, want 12.5", snap.Distance)
	}

	if snap.Stock == nil || *snap.Stock != "sufficient" {
		t.Errorf("Stock = %v, want sufficient", snap.Stock)
	}

	if snap.MoistureRaw == nil || *snap.MoistureRaw != 512 || *snap.MoisturePercent != 45 {
		t.Errorf("Moisture = %v/%v, want 512/45", snap.MoistureRaw, snap.MoisturePercent)
	}

	// Mutating the copy must not leak back into the state.
	*snap.Distance = 99
	if got := s.Snapshot(); *got.Distance != 12.5 {
		t.Error("snapshot should be a copy, not a view")
	}
}
