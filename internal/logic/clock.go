package logic

import "time"

// DefaultClockJump is the discontinuity threshold. A Pi without an RTC jumps
// by decades when NTP first syncs, so a year only fires on re-synchronization.
const DefaultClockJump = 365 * 24 * time.Hour

// ClockGuard measures elapsed time since an anchor and resets the anchor when
// the clock jumps by more than the threshold in either direction.
type ClockGuard struct {
	anchor    time.Time
	threshold time.Duration
	resets    int
}

// NewClockGuard creates a guard anchored at anchor.
func NewClockGuard(anchor time.Time, threshold time.Duration) *ClockGuard {
	return &ClockGuard{anchor: anchor, threshold: threshold}
}

// Check returns the time elapsed since the anchor.
// If now is further than the threshold from the anchor, the anchor moves to
// now and ok is false: the caller must discard the event.
func (g *ClockGuard) Check(now time.Time) (elapsed time.Duration, ok bool) {
	elapsed = now.Sub(g.anchor)
	if abs(elapsed) > g.threshold {
		g.anchor = now
		g.resets++
		return 0, false
	}
	return elapsed, true
}

// Anchor returns the current anchor.
func (g *ClockGuard) Anchor() time.Time {
	return g.anchor
}

// Resets returns the number of discontinuities seen.
func (g *ClockGuard) Resets() int {
	return g.resets
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
