// Package status provides a thread-safe status tracker for the button-kbd
// daemon. It observes the monitor loop and is read by HTTP handlers and
// MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-kbd/internal/keymap"
	"github.com/sweeney/button-kbd/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend       string
	BounceMs      int64
	GraceMs       int64
	SettleMs      int64
	PollTimeoutMs int64
	HeartbeatMs   int64
	Device        string
	Broker        string
	HTTPAddr      string
}

// LineStatus is the state of one monitored line.
type LineStatus struct {
	ID          int
	Edges       logic.Edge
	Keys        []string
	Counts      logic.OutcomeCounts
	LastOutcome logic.Outcome
	LastEdge    logic.Edge
	LastEvent   time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Lines         []LineStatus
	ClockResets   int
	Anomalies     int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Emitted returns the number of key sequences sent across all lines.
func (s Snapshot) Emitted() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Counts.Emitted
	}
	return n
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu    sync.RWMutex
	snap  Snapshot
	index map[int]int
	now   func() time.Time
}

// NewTracker creates a Tracker with one entry per mapped line.
func NewTracker(startTime time.Time, cfg Config, table *keymap.Table) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		index: make(map[int]int),
		now:   time.Now,
	}
	for _, l := range table.Lines() {
		m, _ := table.Lookup(l.ID)
		keys := make([]string, len(m.Sequence))
		for i, k := range m.Sequence {
			keys[i] = k.String()
		}
		t.index[l.ID] = len(t.snap.Lines)
		t.snap.Lines = append(t.snap.Lines, LineStatus{ID: l.ID, Edges: l.Edges, Keys: keys})
	}
	return t
}

// Observe records a processed wakeup. Called from the monitor loop.
func (t *Tracker) Observe(evt logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if evt.Outcome == logic.OutcomeClockReset {
		t.snap.ClockResets++
	}
	i, ok := t.index[evt.Line]
	if !ok {
		t.snap.Anomalies++
		return
	}
	l := &t.snap.Lines[i]
	l.Counts.Add(evt.Outcome)
	l.LastOutcome = evt.Outcome
	l.LastEvent = evt.Timestamp
	if evt.Edge != logic.EdgeNone {
		l.LastEdge = evt.Edge
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Lines = append([]LineStatus(nil), t.snap.Lines...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
