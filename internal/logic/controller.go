package logic

import (
	"time"

	"github.com/google/uuid"
)

// Controller is the dispenser state machine. It is driven by Step, one call
// per poll, and never blocks: dose holds and the clearance wait are
// sub-states with deadlines rather than sleeps.
// Not safe for concurrent use.
type Controller struct {
	cfg Config

	start  *Debouncer
	estop  *Debouncer
	limit  *Debouncer
	object *Debouncer

	// estopHeld is asserted on the first raw e-stop sample and released
	// only once the input has read low for the debounce time.
	estopHeld     bool
	estopLowSince time.Time

	baselined bool
	state     State
	phase     Phase
	stage     int // 0-based index of the current dose stage
	deadline  time.Time
	cycleID   string
	out       Outputs

	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time

	newID func() string
}

// NewController creates a controller in Idle with outputs at rest.
// The startTime is used for calculating uptime in heartbeat events.
func NewController(cfg Config, startTime time.Time) *Controller {
	return &Controller{
		cfg:           cfg,
		start:         NewDebouncer(cfg.Debounce),
		estop:         NewDebouncer(cfg.Debounce),
		limit:         NewDebouncer(cfg.Debounce),
		object:        NewDebouncer(cfg.Debounce),
		state:         StateIdle,
		out:           cfg.Rest(),
		startTime:     startTime,
		lastHeartbeat: startTime,
		newID:         uuid.NewString,
	}
}

// Step takes a new input sample, advances the state machine and returns
// the events produced. Outputs reflects the commands after the step.
func (c *Controller) Step(in Input) []Event {
	t := in.Time
	startEdge := c.start.Update(in.Start, t) && c.start.Stable()
	c.estop.Update(in.EStop, t)
	estop := c.estopActive(in.EStop, t)
	c.limit.Update(in.Limit, t)
	c.object.Update(in.Object, t)

	if !c.baselined {
		if c.start.Baselined() && c.estop.Baselined() && c.limit.Baselined() && c.object.Baselined() {
			c.baselined = true
		}
		return nil // No events until baseline established
	}

	var events []Event

	if estop && !c.shieldedFromEStop() {
		if c.state == StateDispensing {
			c.counts.Aborted++
			events = append(events, c.event(t, EventDispenseAborted))
		}
		if c.state != StateEmergency {
			c.counts.EStops++
			c.enter(StateEmergency)
			events = append(events, c.event(t, EventEStop))
		}
		c.out = c.cfg.Rest()
		return events
	}

	if c.state == StateEmergency {
		c.enter(StateIdle)
		events = append(events, c.event(t, EventEStopReleased))
	}

	switch c.state {
	case StateDispensing:
		return append(events, c.advance(t)...)
	case StateClearance:
		if !c.object.Stable() {
			id := c.cycleID
			c.enter(StateIdle)
			e := c.event(t, EventCleared)
			e.CycleID = id
			events = append(events, e)
		}
		return events
	}

	if startEdge && c.state == StateIdle {
		c.counts.Arms++
		c.enter(StateArmed)
		events = append(events, c.event(t, EventArmed))
	}

	if c.state == StateArmed {
		if c.limit.Stable() && c.object.Stable() {
			return append(events, c.beginCycle(t)...)
		}
		c.out.Motor = DriveForward
		return events
	}

	c.out.Motor = DriveStop
	return events
}

// estopActive acts on an asserted e-stop in the same poll and debounces
// only its release.
func (c *Controller) estopActive(raw bool, t time.Time) bool {
	if raw {
		c.estopHeld = true
		c.estopLowSince = time.Time{}
		return true
	}
	if !c.estopHeld {
		return false
	}
	if c.estopLowSince.IsZero() {
		c.estopLowSince = t
	}
	if t.Sub(c.estopLowSince) >= c.cfg.Debounce {
		c.estopHeld = false
	}
	return c.estopHeld
}

// shieldedFromEStop reports whether the emergency stop is currently ignored.
func (c *Controller) shieldedFromEStop() bool {
	return c.cfg.Interlock == InterlockLegacy && c.inCycle()
}

func (c *Controller) inCycle() bool {
	return c.state == StateDispensing || c.state == StateClearance
}

func (c *Controller) beginCycle(t time.Time) []Event {
	c.enter(StateDispensing)
	c.cycleID = c.newID()
	c.stage = 0
	c.out.Motor = DriveStop
	events := []Event{c.event(t, EventDispenseStart)}
	return append(events, c.openValve(t))
}

func (c *Controller) openValve(t time.Time) Event {
	c.phase = PhaseValveOpen
	c.out.ValveAngle = c.cfg.ValveOpenAngle
	c.deadline = t.Add(time.Duration(c.cfg.Doses.Stage(c.stage)) * c.cfg.DoseUnit)
	return c.event(t, EventValveOpen)
}

// advance moves the dispense sequence forward by at most one phase.
func (c *Controller) advance(t time.Time) []Event {
	if t.Before(c.deadline) {
		return nil
	}

	switch c.phase {
	case PhaseValveOpen:
		c.phase = PhasePumping
		c.out.ValveAngle = c.cfg.ValveCloseAngle
		c.out.Pump = DriveForward
		c.deadline = t.Add(c.cfg.PumpDuration)
		return []Event{c.event(t, EventPumpOn)}

	case PhasePumping:
		c.out.Pump = DriveStop
		events := []Event{c.event(t, EventStageComplete)}
		c.stage++
		if c.stage < c.cfg.Doses.Len() {
			return append(events, c.openValve(t))
		}
		c.counts.Cycles++
		c.enter(StateClearance)
		return append(events, c.event(t, EventDispenseComplete))
	}

	return nil
}

// enter switches the top-level state and clears dispense bookkeeping
// when leaving a cycle.
func (c *Controller) enter(s State) {
	if s != StateDispensing {
		c.phase = PhaseNone
	}
	if s == StateIdle || s == StateArmed || s == StateEmergency {
		c.cycleID = ""
		c.stage = 0
	}
	c.state = s
}

func (c *Controller) event(t time.Time, typ EventType) Event {
	e := Event{
		Timestamp: t,
		Type:      typ,
		State:     c.state,
		CycleID:   c.cycleID,
	}
	if c.state == StateDispensing {
		e.Stage = c.stage + 1
	}
	return e
}

// Outputs returns the actuator commands after the last step.
func (c *Controller) Outputs() Outputs {
	return c.out
}

// State returns the current top-level state.
func (c *Controller) State() State {
	return c.state
}

// Phase returns the current dispense phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Stage returns the 1-based dose stage being dispensed, or 0.
func (c *Controller) Stage() int {
	if c.state != StateDispensing {
		return 0
	}
	return c.stage + 1
}

// Running reports whether the system is actively cycling (armed or dispensing).
func (c *Controller) Running() bool {
	return c.state == StateArmed || c.state == StateDispensing
}

// IsBaselined returns whether every input has a stable baseline.
func (c *Controller) IsBaselined() bool {
	return c.baselined
}

// Inputs returns the debounced input levels. EStop is the effective
// level: asserted immediately, released after the debounce time.
func (c *Controller) Inputs() InputState {
	return InputState{
		Start:  c.start.Stable(),
		EStop:  c.estopHeld,
		Limit:  c.limit.Stable(),
		Object: c.object.Stable(),
	}
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// CountsSnapshot returns a copy of the activity counters.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 || !c.baselined {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
