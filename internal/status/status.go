// Package status provides a thread-safe status tracker for the dispenser daemon.
// It is written by the control loop and read by HTTP handlers and system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dispenser/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs          int64
	DebounceMs      int64
	HeartbeatMs     int64
	Doses           string
	DoseUnitMs      int64
	PumpMs          int64
	ValveOpenAngle  int
	ValveCloseAngle int
	Interlock       string
	Broker          string
	HTTPPort        string
}

// ControllerState is the part of the snapshot owned by the controller.
type ControllerState struct {
	State      logic.State
	Phase      logic.Phase
	Stage      int
	StageCount int
	Running    bool
	Baselined  bool
	Inputs     logic.InputState
	Outputs    logic.Outputs
	Counts     logic.Counts
}

// FromController captures the controller's current state.
func FromController(c *logic.Controller) ControllerState {
	return ControllerState{
		State:      c.State(),
		Phase:      c.Phase(),
		Stage:      c.Stage(),
		StageCount: c.Config().Doses.Len(),
		Running:    c.Running(),
		Baselined:  c.IsBaselined(),
		Inputs:     c.Inputs(),
		Outputs:    c.Outputs(),
		Counts:     c.CountsSnapshot(),
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	ControllerState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Resources     *Resources // nil until first sampled
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the controller part of the snapshot.
// Called from runLoop on every tick.
func (t *Tracker) Update(cs ControllerState) {
	t.mu.Lock()
	t.snap.ControllerState = cs
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetResources records the latest process resource sample.
func (t *Tracker) SetResources(r Resources) {
	t.mu.Lock()
	t.snap.Resources = &r
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
