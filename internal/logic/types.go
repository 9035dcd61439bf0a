// Package logic contains the pure control logic of the dispenser.
// This package has NO hardware or transport dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State is the top-level controller state.
type State string

const (
	StateIdle       State = "IDLE"
	StateArmed      State = "ARMED"
	StateDispensing State = "DISPENSING"
	StateClearance  State = "CLEARANCE_WAIT"
	StateEmergency  State = "EMERGENCY_STOP"
)

// Phase is the sub-state of a dispense cycle. Empty outside StateDispensing.
type Phase string

const (
	PhaseNone      Phase = ""
	PhaseValveOpen Phase = "VALVE_OPEN"
	PhasePumping   Phase = "PUMPING"
)

// Drive is the command for a direction/speed actuator (motor or pump).
type Drive string

const (
	DriveStop    Drive = "STOP"
	DriveForward Drive = "FORWARD"
)

// Outputs is the full set of actuator commands the controller wants applied.
type Outputs struct {
	Motor      Drive
	Pump       Drive
	ValveAngle int
}

// Input represents a single sample of logical input states.
// All fields are true when the input is asserted (already inverted from the
// active-low raw GPIO levels).
type Input struct {
	Start  bool
	EStop  bool
	Limit  bool
	Object bool
	Time   time.Time
}

// InputState is the debounced view of the four inputs.
type InputState struct {
	Start  bool
	EStop  bool
	Limit  bool
	Object bool
}

// EventType identifies a controller event.
type EventType string

const (
	EventArmed            EventType = "ARMED"
	EventDispenseStart    EventType = "DISPENSE_START"
	EventValveOpen        EventType = "VALVE_OPEN"
	EventPumpOn           EventType = "PUMP_ON"
	EventStageComplete    EventType = "STAGE_COMPLETE"
	EventDispenseComplete EventType = "DISPENSE_COMPLETE"
	EventCleared          EventType = "CLEARED"
	EventEStop            EventType = "ESTOP"
	EventEStopReleased    EventType = "ESTOP_RELEASED"
	EventDispenseAborted  EventType = "DISPENSE_ABORTED"
)

var eventMessages = map[EventType]string{
	EventArmed:            "System armed.",
	EventDispenseStart:    "Object in position, dispensing.",
	EventValveOpen:        "Operating Servo.",
	EventPumpOn:           "Operating Pump.",
	EventStageComplete:    "Dose stage complete.",
	EventDispenseComplete: "Dispensing completed.",
	EventCleared:          "Object cleared.",
	EventEStop:            "Emergency Stop Activated. All operations STOPPED.",
	EventEStopReleased:    "Emergency Stop released.",
	EventDispenseAborted:  "Dispensing aborted.",
}

// Message returns the human-readable diagnostic line for the event type.
func (t EventType) Message() string {
	if m, ok := eventMessages[t]; ok {
		return m
	}
	return string(t)
}

// Event is something the controller did, to be logged and published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State  // controller state after the event
	Stage     int    // 1-based dose stage, 0 when not applicable
	CycleID   string // set for every event belonging to a dispense cycle
}

// Message returns the diagnostic line for this event.
func (e Event) Message() string {
	return e.Type.Message()
}

// ChannelState tracks debounce state for a single input.
type ChannelState struct {
	// Current stable (debounced) level
	Stable bool
	// Pending level during debounce
	Pending bool
	// Whether a pending level is being observed
	HasPending bool
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Counts tracks controller activity since startup.
type Counts struct {
	Arms    int
	Cycles  int
	EStops  int
	Aborted int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
