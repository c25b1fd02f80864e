package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/button-kbd/internal/keymap"
	"github.com/sweeney/button-kbd/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Backend: "cdev", BounceMs: 300, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg, keymap.Default())

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.BounceMs != 300 {
		t.Errorf("Config.BounceMs: got %d, want 300", snap.Config.BounceMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if len(snap.Lines) != 2 {
		t.Fatalf("Lines: got %d, want 2", len(snap.Lines))
	}
	if snap.Lines[0].ID != 20 || snap.Lines[1].ID != 21 {
		t.Errorf("line order: got %d,%d, want 20,21", snap.Lines[0].ID, snap.Lines[1].ID)
	}
	want := []string{"+LEFTCTRL", "+R", "-R", "-LEFTCTRL"}
	got := snap.Lines[1].Keys
	if len(got) != len(want) {
		t.Fatalf("line 21 keys: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line 21 key %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestObserve(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, keymap.Default())
	at := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)

	tr.Observe(logic.Event{Timestamp: at, Line: 20, Outcome: logic.OutcomeEmitted, Edge: logic.EdgeFalling})
	tr.Observe(logic.Event{Timestamp: at, Line: 20, Outcome: logic.OutcomeBounce})
	tr.Observe(logic.Event{Timestamp: at, Line: 21, Outcome: logic.OutcomeEdgeMismatch, Edge: logic.EdgeRising})
	tr.Observe(logic.Event{Timestamp: at, Line: 21, Outcome: logic.OutcomeClockReset})

	snap := tr.Snapshot()
	l20 := snap.Lines[0]
	if l20.Counts.Emitted != 1 || l20.Counts.Bounce != 1 {
		t.Errorf("line 20 counts: got %+v", l20.Counts)
	}
	if l20.LastOutcome != logic.OutcomeBounce {
		t.Errorf("line 20 LastOutcome: got %q, want BOUNCE", l20.LastOutcome)
	}
	// A bounce samples nothing, so the last edge stays.
	if l20.LastEdge != logic.EdgeFalling {
		t.Errorf("line 20 LastEdge: got %v, want falling", l20.LastEdge)
	}
	if !l20.LastEvent.Equal(at) {
		t.Errorf("line 20 LastEvent: got %v, want %v", l20.LastEvent, at)
	}

	l21 := snap.Lines[1]
	if l21.Counts.EdgeMismatch != 1 || l21.Counts.ClockReset != 1 {
		t.Errorf("line 21 counts: got %+v", l21.Counts)
	}
	if snap.ClockResets != 1 {
		t.Errorf("ClockResets: got %d, want 1", snap.ClockResets)
	}
	if snap.Emitted() != 1 {
		t.Errorf("Emitted: got %d, want 1", snap.Emitted())
	}
}

func TestObserveUnknownLine(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, keymap.Default())

	tr.Observe(logic.Event{Line: 99, Outcome: logic.OutcomeUnmapped})

	snap := tr.Snapshot()
	if snap.Anomalies != 1 {
		t.Errorf("Anomalies: got %d, want 1", snap.Anomalies)
	}
	for _, l := range snap.Lines {
		if l.Counts.Total() != 0 {
			t.Errorf("line %d: got %d counted wakeups, want 0", l.ID, l.Counts.Total())
		}
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, keymap.Default())

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{}, keymap.Default())

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, keymap.Default())
	tr.Observe(logic.Event{Line: 20, Outcome: logic.OutcomeEmitted})

	snap1 := tr.Snapshot()

	tr.Observe(logic.Event{Line: 20, Outcome: logic.OutcomeEmitted})

	if snap1.Lines[0].Counts.Emitted != 1 {
		t.Errorf("snapshot should be a copy; Emitted changed to %d", snap1.Lines[0].Counts.Emitted)
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Lines: []LineStatus{
			{
				ID:          20,
				Edges:       logic.EdgeFalling,
				Keys:        []string{"+SPACE", "-SPACE"},
				Counts:      logic.OutcomeCounts{Emitted: 5, Bounce: 2},
				LastOutcome: logic.OutcomeEmitted,
				LastEdge:    logic.EdgeFalling,
				LastEvent:   start.Add(time.Minute),
			},
			{ID: 21, Edges: logic.EdgeBoth, Keys: []string{"+R", "-R"}},
		},
		ClockResets:   1,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Backend: "sysfs", BounceMs: 300, GraceMs: 1000, HeartbeatMs: 900000, Broker: "tcp://localhost:1883"},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Emitted != 5 {
		t.Errorf("Emitted: got %d, want 5", s.Emitted)
	}
	if s.ClockResets != 1 {
		t.Errorf("ClockResets: got %d, want 1", s.ClockResets)
	}
	if len(s.Lines) != 2 {
		t.Fatalf("Lines: got %d, want 2", len(s.Lines))
	}
	if s.Lines[0].Edge != "falling" || s.Lines[0].LastEdge != "falling" {
		t.Errorf("line 20 edges: got %q/%q", s.Lines[0].Edge, s.Lines[0].LastEdge)
	}
	if s.Lines[0].Counts.Bounce != 2 {
		t.Errorf("line 20 bounce: got %d, want 2", s.Lines[0].Counts.Bounce)
	}
	if s.Lines[0].LastEvent != "2026-01-01T00:01:00Z" {
		t.Errorf("line 20 LastEvent: got %q", s.Lines[0].LastEvent)
	}
	if s.Lines[1].Edge != "both" {
		t.Errorf("line 21 edge: got %q, want both", s.Lines[1].Edge)
	}
	if s.Config.Backend != "sysfs" {
		t.Errorf("Config.Backend: got %q, want sysfs", s.Config.Backend)
	}
	// Event and Reason should be omitted
	if s.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", s.Event)
	}
	if s.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", s.Reason)
	}
}

func TestFormatJSONIdleLine(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	lines := raw["status"].(map[string]interface{})["lines"].([]interface{})
	idle := lines[1].(map[string]interface{})
	for _, k := range []string{"last_outcome", "last_edge", "last_event"} {
		if _, exists := idle[k]; exists {
			t.Errorf("%s should be omitted for a line that never fired", k)
		}
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "terminated")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "terminated" {
		t.Errorf("Reason: got %q, want terminated", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{}, keymap.Default())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Observe(logic.Event{Line: 20 + i%2, Outcome: logic.OutcomeEmitted})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()

	if got := tr.Snapshot().Emitted(); got != 1000 {
		t.Errorf("Emitted: got %d, want 1000", got)
	}
}

func TestFormatLineJSON(t *testing.T) {
	data, ok := FormatLineJSON(testSnapshot(), 20)
	if !ok {
		t.Fatal("expected line 20")
	}
	var lj LineJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if lj.Line != 20 || lj.Counts.Emitted != 5 || lj.LastOutcome != "EMITTED" {
		t.Errorf("line 20: got %+v", lj)
	}

	if _, ok := FormatLineJSON(testSnapshot(), 99); ok {
		t.Error("expected no JSON for an unmonitored line")
	}
}
