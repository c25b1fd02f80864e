// Package logic contains the pure decision logic for turning line interrupts
// into key events. This package has NO external dependencies (no GPIO, uinput,
// MQTT, OS, or time.Sleep). Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"strings"
	"time"
)

// Edge is a set of level transitions a line can trigger on.
type Edge uint8

const (
	EdgeRising  Edge = 1 << iota // 0 -> 1
	EdgeFalling                  // 1 -> 0

	EdgeNone Edge = 0
	EdgeBoth      = EdgeRising | EdgeFalling
)

// Levels as read from a line.
const (
	LevelLow  = 0
	LevelHigh = 1
)

// ParseEdge parses "rising", "falling" or "both".
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rising":
		return EdgeRising, nil
	case "falling":
		return EdgeFalling, nil
	case "both":
		return EdgeBoth, nil
	}
	return EdgeNone, fmt.Errorf("unknown edge %q (want rising, falling or both)", s)
}

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	}
	return "none"
}

// Has reports whether every edge in other is also in e.
func (e Edge) Has(other Edge) bool {
	return other != EdgeNone && e&other == other
}

// EdgeForLevel maps a settled level to the edge that produced it.
// Returns false for anything other than 0 or 1.
func EdgeForLevel(level int) (Edge, bool) {
	switch level {
	case LevelLow:
		return EdgeFalling, true
	case LevelHigh:
		return EdgeRising, true
	}
	return EdgeNone, false
}

// Outcome is the result of routing one pending line through the filter chain.
type Outcome string

const (
	OutcomeClockReset   Outcome = "CLOCK_RESET"
	OutcomeBounce       Outcome = "BOUNCE"
	OutcomeEdgeMismatch Outcome = "EDGE_MISMATCH"
	OutcomeUnmapped     Outcome = "UNMAPPED"
	OutcomeEmitted      Outcome = "EMITTED"
)

// Event describes one processed wakeup on a line.
type Event struct {
	Timestamp time.Time
	Line      int
	Outcome   Outcome
	Edge      Edge     // set when the level was sampled
	Keys      []string // transitions written, e.g. "+LEFTCTRL"; set on OutcomeEmitted
}

// OutcomeCounts tracks the number of each outcome on a line.
type OutcomeCounts struct {
	ClockReset   int
	Bounce       int
	EdgeMismatch int
	Unmapped     int
	Emitted      int
}

// Add increments the counter for o.
func (c *OutcomeCounts) Add(o Outcome) {
	switch o {
	case OutcomeClockReset:
		c.ClockReset++
	case OutcomeBounce:
		c.Bounce++
	case OutcomeEdgeMismatch:
		c.EdgeMismatch++
	case OutcomeUnmapped:
		c.Unmapped++
	case OutcomeEmitted:
		c.Emitted++
	}
}

// Total returns the number of wakeups counted.
func (c OutcomeCounts) Total() int {
	return c.ClockReset + c.Bounce + c.EdgeMismatch + c.Unmapped + c.Emitted
}
