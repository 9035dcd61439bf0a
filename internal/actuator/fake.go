package actuator

import "github.com/sweeney/dispenser/internal/logic"

// Command records a single call made on a FakeDriver.
type Command struct {
	Output string // "motor", "pump" or "valve"
	Drive  logic.Drive
	Angle  int
}

// FakeDriver records commands for test assertions.
type FakeDriver struct {
	// Commands contains every command in call order.
	Commands []Command

	// Current output levels.
	Motor      logic.Drive
	Pump       logic.Drive
	ValveAngle int

	// Err, if set, is returned by every Set call (which is still recorded).
	Err error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver with motor and pump stopped.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{Motor: logic.DriveStop, Pump: logic.DriveStop}
}

// SetMotor records the motor command.
func (f *FakeDriver) SetMotor(d logic.Drive) error {
	f.Commands = append(f.Commands, Command{Output: "motor", Drive: d})
	if f.Err != nil {
		return f.Err
	}
	f.Motor = d
	return nil
}

// SetPump records the pump command.
func (f *FakeDriver) SetPump(d logic.Drive) error {
	f.Commands = append(f.Commands, Command{Output: "pump", Drive: d})
	if f.Err != nil {
		return f.Err
	}
	f.Pump = d
	return nil
}

// SetValve records the valve command.
func (f *FakeDriver) SetValve(angle int) error {
	f.Commands = append(f.Commands, Command{Output: "valve", Angle: angle})
	if f.Err != nil {
		return f.Err
	}
	f.ValveAngle = angle
	return nil
}

// Outputs returns the current levels as logic.Outputs.
func (f *FakeDriver) Outputs() logic.Outputs {
	return logic.Outputs{Motor: f.Motor, Pump: f.Pump, ValveAngle: f.ValveAngle}
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded commands.
func (f *FakeDriver) Reset() {
	f.Commands = nil
	f.Err = nil
	f.Closed = false
}
