package logic

import (
	"testing"
	"time"
)

func TestClockGuardElapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewClockGuard(start, DefaultClockJump)

	elapsed, ok := g.Check(start.Add(1500 * time.Millisecond))
	if !ok {
		t.Fatal("expected valid reading")
	}
	if elapsed != 1500*time.Millisecond {
		t.Errorf("elapsed: got %v, want 1.5s", elapsed)
	}
	if !g.Anchor().Equal(start) {
		t.Errorf("anchor moved on a valid reading: %v", g.Anchor())
	}
}

func TestClockGuardForwardJump(t *testing.T) {
	// Pi boots at the epoch and NTP moves the clock to the present.
	boot := time.Unix(0, 0).UTC()
	g := NewClockGuard(boot, DefaultClockJump)

	synced := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	elapsed, ok := g.Check(synced)
	if ok {
		t.Fatal("expected jump to be rejected")
	}
	if elapsed != 0 {
		t.Errorf("elapsed on reset: got %v, want 0", elapsed)
	}
	if !g.Anchor().Equal(synced) {
		t.Errorf("anchor: got %v, want %v", g.Anchor(), synced)
	}
	if g.Resets() != 1 {
		t.Errorf("resets: got %d, want 1", g.Resets())
	}

	// Next reading is measured against the new anchor.
	elapsed, ok = g.Check(synced.Add(2 * time.Second))
	if !ok || elapsed != 2*time.Second {
		t.Errorf("after reset: got (%v, %v), want (2s, true)", elapsed, ok)
	}
}

func TestClockGuardBackwardJump(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewClockGuard(start, DefaultClockJump)

	back := start.AddDate(-30, 0, 0)
	if _, ok := g.Check(back); ok {
		t.Fatal("expected backward jump to be rejected")
	}
	if !g.Anchor().Equal(back) {
		t.Errorf("anchor: got %v, want %v", g.Anchor(), back)
	}
}

func TestClockGuardSmallDriftTolerated(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewClockGuard(start, DefaultClockJump)

	// A routine NTP correction of a few minutes is not a discontinuity.
	if _, ok := g.Check(start.Add(-3 * time.Minute)); !ok {
		t.Error("small backward drift should not reset the anchor")
	}
	if _, ok := g.Check(start.Add(200 * 24 * time.Hour)); !ok {
		t.Error("200 days of uptime should not reset the anchor")
	}
	if g.Resets() != 0 {
		t.Errorf("resets: got %d, want 0", g.Resets())
	}
}

func TestClockGuardThresholdBoundary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewClockGuard(start, time.Hour)

	if _, ok := g.Check(start.Add(time.Hour)); !ok {
		t.Error("exactly the threshold should still be valid")
	}
	if _, ok := g.Check(start.Add(time.Hour + time.Millisecond)); ok {
		t.Error("beyond the threshold should reset")
	}
}
