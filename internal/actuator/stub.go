//go:build !linux

package actuator

import (
	"errors"

	"github.com/sweeney/dispenser/internal/logic"
)

// RealDriver is not available on non-Linux platforms.
type RealDriver struct{}

// NewRealDriver returns an error on non-Linux platforms.
func NewRealDriver(chipName string, pins Pins, servoPin string) (*RealDriver, error) {
	return nil, errors.New("actuator: not supported on this platform (requires Linux)")
}

// SetMotor is not implemented on non-Linux platforms.
func (d *RealDriver) SetMotor(logic.Drive) error {
	return errors.New("actuator: not supported")
}

// SetPump is not implemented on non-Linux platforms.
func (d *RealDriver) SetPump(logic.Drive) error {
	return errors.New("actuator: not supported")
}

// SetValve is not implemented on non-Linux platforms.
func (d *RealDriver) SetValve(int) error {
	return errors.New("actuator: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *RealDriver) Close() error {
	return nil
}
