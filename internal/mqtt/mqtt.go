// Package mqtt publishes key events and daemon lifecycle events to an MQTT
// broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-kbd/internal/logic"
)

// Topic is the MQTT topic for emitted key events.
const Topic = "input/button-kbd/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "input/button-kbd/system"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an emitted key event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name on shutdown
	RawPayload []byte // pre-formatted status JSON; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the MQTT message payload for a key event.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the key event details.
type ButtonPayload struct {
	Timestamp string   `json:"timestamp"`
	Line      int      `json:"line"`
	Edge      string   `json:"edge"`
	Keys      []string `json:"keys"`
}

// FormatPayload creates the JSON payload for a key event.
func FormatPayload(event logic.Event) ([]byte, error) {
	keys := event.Keys
	if keys == nil {
		keys = []string{}
	}
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Line:      event.Line,
			Edge:      event.Edge.String(),
			Keys:      keys,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the payload for system events that carry no status
// snapshot (last will, RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
