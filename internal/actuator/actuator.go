// Package actuator drives the dispenser outputs: the conveyor motor, the
// dosing pump and the valve servo.
package actuator

import (
	"errors"
	"fmt"

	"github.com/sweeney/dispenser/internal/logic"
)

// Driver commands the physical outputs.
type Driver interface {
	// SetMotor starts or stops the conveyor/agitation motor.
	SetMotor(d logic.Drive) error

	// SetPump starts or stops the dosing pump.
	SetPump(d logic.Drive) error

	// SetValve moves the valve servo to the given angle in degrees.
	SetValve(angle int) error

	// Close stops all outputs and releases resources.
	Close() error
}

// Pins holds the BCM line offsets of the motor and pump enable outputs.
type Pins struct {
	Motor int
	Pump  int
}

// Default output pins (BCM numbering)
const (
	DefaultPinMotor = 20
	DefaultPinPump  = 21
)

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{Motor: DefaultPinMotor, Pump: DefaultPinPump}
}

// Apply sends only the fields of next that differ from prev.
// Drives that stop are sent before the valve moves and drives that start
// are sent after it, so the pump never runs against an open valve.
// Every field is attempted even if an earlier one fails.
func Apply(d Driver, prev, next logic.Outputs) error {
	var errs []error
	drives := []struct {
		name     string
		set      func(logic.Drive) error
		from, to logic.Drive
	}{
		{"motor", d.SetMotor, prev.Motor, next.Motor},
		{"pump", d.SetPump, prev.Pump, next.Pump},
	}
	send := func(starting bool) {
		for _, dr := range drives {
			if dr.to == dr.from || (dr.to == logic.DriveForward) != starting {
				continue
			}
			if err := dr.set(dr.to); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", dr.name, err))
			}
		}
	}

	send(false)
	if next.ValveAngle != prev.ValveAngle {
		if err := d.SetValve(next.ValveAngle); err != nil {
			errs = append(errs, fmt.Errorf("valve: %w", err))
		}
	}
	send(true)
	return errors.Join(errs...)
}

// ApplyAll sends every field of out, regardless of previous state.
func ApplyAll(d Driver, out logic.Outputs) error {
	return Apply(d, logic.Outputs{Motor: "-", Pump: "-", ValveAngle: -1}, out)
}

func driveLevel(d logic.Drive) int {
	if d == logic.DriveForward {
		return 1
	}
	return 0
}
