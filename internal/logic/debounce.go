package logic

import "time"

// Debounce defaults.
const (
	DefaultBounceWindow = 300 * time.Millisecond
	DefaultStartupGrace = time.Second
)

// DebounceFilter decides per line whether an interrupt is a genuine
// transition. Lines do not interact.
type DebounceFilter struct {
	window time.Duration
	grace  time.Duration
	last   map[int]time.Duration
}

// NewDebounceFilter creates a filter with one zeroed entry per line.
func NewDebounceFilter(window, grace time.Duration, lines []int) *DebounceFilter {
	f := &DebounceFilter{
		window: window,
		grace:  grace,
		last:   make(map[int]time.Duration, len(lines)),
	}
	for _, id := range lines {
		f.last[id] = 0
	}
	return f
}

// Accept reports whether an interrupt at elapsed (since the clock anchor) on
// line should be acted on, and records it as the last accepted time if so.
func (f *DebounceFilter) Accept(line int, elapsed time.Duration) bool {
	last, known := f.last[line]
	if !known {
		return false
	}
	// Recorded against an anchor that has since been reset.
	if last > elapsed {
		last = 0
	}
	if elapsed-last <= f.window || elapsed <= f.grace {
		return false
	}
	f.last[line] = elapsed
	return true
}

// LastAccepted returns the last accepted elapsed time for line.
func (f *DebounceFilter) LastAccepted(line int) time.Duration {
	return f.last[line]
}
