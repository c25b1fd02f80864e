package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	Emitted       int        `json:"emitted"`
	ClockResets   int        `json:"clock_resets"`
	Anomalies     int        `json:"anomalies"`
	MQTT          MQTTStatus `json:"mqtt"`
	Lines         []LineJSON `json:"lines"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// LineJSON is the JSON representation of one line.
type LineJSON struct {
	Line        int        `json:"line"`
	Edge        string     `json:"edge"`
	Keys        []string   `json:"keys"`
	LastOutcome string     `json:"last_outcome,omitempty"`
	LastEdge    string     `json:"last_edge,omitempty"`
	LastEvent   string     `json:"last_event,omitempty"`
	Counts      CountsJSON `json:"counts"`
}

// CountsJSON is the JSON representation of outcome counts.
type CountsJSON struct {
	Emitted      int `json:"emitted"`
	Bounce       int `json:"bounce"`
	EdgeMismatch int `json:"edge_mismatch"`
	ClockReset   int `json:"clock_reset"`
	Unmapped     int `json:"unmapped"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend       string `json:"backend"`
	BounceMs      int64  `json:"bounce_ms"`
	GraceMs       int64  `json:"grace_ms"`
	SettleMs      int64  `json:"settle_ms"`
	PollTimeoutMs int64  `json:"poll_timeout_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Device        string `json:"device"`
	Broker        string `json:"broker,omitempty"`
	HTTPAddr      string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Emitted:       snap.Emitted(),
		ClockResets:   snap.ClockResets,
		Anomalies:     snap.Anomalies,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Lines:         make([]LineJSON, 0, len(snap.Lines)),
		Config: ConfigJSON{
			Backend:       snap.Config.Backend,
			BounceMs:      snap.Config.BounceMs,
			GraceMs:       snap.Config.GraceMs,
			SettleMs:      snap.Config.SettleMs,
			PollTimeoutMs: snap.Config.PollTimeoutMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Device:        snap.Config.Device,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}

	for _, l := range snap.Lines {
		inner.Lines = append(inner.Lines, lineJSON(l))
	}
	return inner
}

func lineJSON(l LineStatus) LineJSON {
	lj := LineJSON{
		Line:        l.ID,
		Edge:        l.Edges.String(),
		Keys:        l.Keys,
		LastOutcome: string(l.LastOutcome),
		Counts: CountsJSON{
			Emitted:      l.Counts.Emitted,
			Bounce:       l.Counts.Bounce,
			EdgeMismatch: l.Counts.EdgeMismatch,
			ClockReset:   l.Counts.ClockReset,
			Unmapped:     l.Counts.Unmapped,
		},
	}
	if l.LastEdge != 0 {
		lj.LastEdge = l.LastEdge.String()
	}
	if !l.LastEvent.IsZero() {
		lj.LastEvent = l.LastEvent.UTC().Format(time.RFC3339)
	}
	return lj
}

// FormatLineJSON returns the JSON for one line, or false if the line is not
// monitored.
func FormatLineJSON(snap Snapshot, id int) ([]byte, bool) {
	for _, l := range snap.Lines {
		if l.ID == id {
			data, _ := json.MarshalIndent(lineJSON(l), "", "  ")
			return data, true
		}
	}
	return nil, false
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
