// Package mqtt publishes dispenser events and lifecycle notices to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dispenser/internal/logic"
)

const (
	// Topic carries one message per controller event.
	Topic = "factory/dispenser/events"

	// TopicSystem carries STARTUP, SHUTDOWN, HEARTBEAT and the broker-side LWT.
	TopicSystem = "factory/dispenser/system"
)

// Publisher is implemented by RealPublisher, FakePublisher and Discard.
// A failed publish is reported to the caller and never stops the control loop.
type Publisher interface {
	Publish(event logic.Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is optionally implemented by a Publisher.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a process lifecycle notice published on TopicSystem.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED
	Reason    string // signal name on SHUTDOWN

	// RawPayload replaces the generated body, typically with a status snapshot.
	RawPayload []byte
	Retained   bool
}

// Payload is the body of a controller event message.
type Payload struct {
	Dispenser DispenserPayload `json:"dispenser"`
}

type DispenserPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Stage     int    `json:"stage,omitempty"`
	CycleID   string `json:"cycle_id,omitempty"`
	Message   string `json:"message"`
}

// FormatPayload renders event as the JSON body published on Topic.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{Dispenser: DispenserPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		State:     string(event.State),
		Stage:     event.Stage,
		CycleID:   event.CycleID,
		Message:   event.Message(),
	}})
}

// SystemPayload is the minimal body used when no snapshot is attached,
// as for the LWT and RECONNECTED notices.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload returns event.RawPayload when set, otherwise a
// SystemPayload built from the event fields.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}

// Discard accepts and drops everything. main uses it when -broker is empty.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(logic.Event) error       { return nil }
func (discard) PublishSystem(SystemEvent) error { return nil }
func (discard) Close() error                    { return nil }
func (discard) IsConnected() bool               { return false }
