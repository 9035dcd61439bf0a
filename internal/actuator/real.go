//go:build linux

package actuator

import (
	"fmt"

	"github.com/sweeney/dispenser/internal/logic"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// RealDriver drives the motor and pump enable lines through the Linux GPIO
// character device and the valve through a periph PWM servo.
type RealDriver struct {
	chip  *gpiocdev.Chip
	motor *gpiocdev.Line
	pump  *gpiocdev.Line
	valve *Servo
}

// NewRealDriver requests the output lines (initially low, i.e. stopped)
// and prepares the valve servo on the named PWM pin (e.g. "GPIO18").
func NewRealDriver(chipName string, pins Pins, servoPin string) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	d := &RealDriver{chip: chip}

	d.motor, err = chip.RequestLine(pins.Motor, gpiocdev.AsOutput(0))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request motor pin %d: %w", pins.Motor, err)
	}

	d.pump, err = chip.RequestLine(pins.Pump, gpiocdev.AsOutput(0))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", pins.Pump, err)
	}

	if _, err := host.Init(); err != nil {
		d.Close()
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(servoPin)
	if pin == nil {
		d.Close()
		return nil, fmt.Errorf("valve servo pin %q not found", servoPin)
	}
	d.valve = NewServo(pin)

	return d, nil
}

// SetMotor drives the motor enable line.
func (d *RealDriver) SetMotor(drive logic.Drive) error {
	return d.motor.SetValue(driveLevel(drive))
}

// SetPump drives the pump enable line.
func (d *RealDriver) SetPump(drive logic.Drive) error {
	return d.pump.SetValue(driveLevel(drive))
}

// SetValve moves the valve servo.
func (d *RealDriver) SetValve(angle int) error {
	return d.valve.SetAngle(angle)
}

// Close drives both enable lines low, disables the servo output and
// releases the lines.
func (d *RealDriver) Close() error {
	var errs []error

	for _, out := range []struct {
		name string
		line *gpiocdev.Line
	}{
		{"motor", d.motor},
		{"pump", d.pump},
	} {
		if out.line == nil {
			continue
		}
		if err := out.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", out.name, err))
		}
		if err := out.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s line: %w", out.name, err))
		}
	}
	if d.valve != nil {
		if err := d.valve.Disable(); err != nil {
			errs = append(errs, fmt.Errorf("disable valve: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
