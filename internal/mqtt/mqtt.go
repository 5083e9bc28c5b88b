// Package mqtt publishes program transitions and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hestia/internal/program"
	"github.com/sweeney/hestia/internal/runner"
)

// Topic is the MQTT topic for program transitions.
const Topic = "uts/hestia/program"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "uts/hestia/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a program transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(tr runner.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a transition.
type Payload struct {
	Program ProgramPayload `json:"program"`
}

// ProgramPayload contains the transition details. Program fields describe the
// program being left or entered, whichever is set.
type ProgramPayload struct {
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Reason    string   `json:"reason"`
	ProgramID *int     `json:"program_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Board     string   `json:"board,omitempty"`
	Deadline  string   `json:"deadline,omitempty"`
	Temp      *float64 `json:"temp,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func transitionProgram(tr runner.Transition) *program.Program {
	if tr.To.Program != nil {
		return tr.To.Program
	}
	return tr.From.Program
}

// FormatPayload creates the JSON payload for a transition.
func FormatPayload(tr runner.Transition) ([]byte, error) {
	pp := ProgramPayload{
		Timestamp: tr.Timestamp.UTC().Format(time.RFC3339Nano),
		From:      string(tr.From.Kind),
		To:        string(tr.To.Kind),
		Reason:    string(tr.Reason),
		Message:   tr.To.Message,
	}
	if p := transitionProgram(tr); p != nil {
		id := p.ID
		pp.ProgramID = &id
		pp.Name = p.Name
		pp.Board = p.HeatBoard.String()
	}
	if !tr.To.Deadline.IsZero() {
		pp.Deadline = tr.To.Deadline.UTC().Format(time.RFC3339Nano)
	}
	switch tr.Reason {
	case runner.ReasonAbortTemp, runner.ReasonCoolTemp:
		temp := tr.Temp
		pp.Temp = &temp
	}
	return json.Marshal(Payload{Program: pp})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
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

// NopPublisher discards everything. It stands in when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(runner.Transition) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
