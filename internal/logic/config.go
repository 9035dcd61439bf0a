package logic

import (
	"errors"
	"fmt"
	"time"
)

// Interlock selects how the emergency stop interacts with a running cycle.
type Interlock string

const (
	// InterlockLegacy ignores the emergency stop while dispensing and while
	// waiting for the object to clear. It is checked again once the
	// controller is back in Idle or Armed.
	InterlockLegacy Interlock = "legacy"
	// InterlockStrict honours the emergency stop on every tick and aborts
	// a running cycle.
	InterlockStrict Interlock = "strict"
)

// Default tuning values.
const (
	DefaultDoseUnit        = time.Second
	DefaultPumpDuration    = 10 * time.Second
	DefaultValveOpenAngle  = 90
	DefaultValveCloseAngle = 45
	DefaultDebounce        = 50 * time.Millisecond
)

// Config holds the controller tunables.
type Config struct {
	Doses           DoseSchedule
	DoseUnit        time.Duration
	PumpDuration    time.Duration
	ValveOpenAngle  int
	ValveCloseAngle int
	Debounce        time.Duration
	Interlock       Interlock
}

// DefaultConfig returns the stock dispenser configuration.
func DefaultConfig() Config {
	doses, _ := NewDoseSchedule(DefaultDoses()...)
	return Config{
		Doses:           doses,
		DoseUnit:        DefaultDoseUnit,
		PumpDuration:    DefaultPumpDuration,
		ValveOpenAngle:  DefaultValveOpenAngle,
		ValveCloseAngle: DefaultValveCloseAngle,
		Debounce:        DefaultDebounce,
		Interlock:       InterlockLegacy,
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c Config) Validate() error {
	if c.Doses.Len() == 0 {
		return errors.New("config: dose schedule is empty")
	}
	if c.DoseUnit <= 0 {
		return fmt.Errorf("config: dose unit must be positive, got %v", c.DoseUnit)
	}
	if c.PumpDuration <= 0 {
		return fmt.Errorf("config: pump duration must be positive, got %v", c.PumpDuration)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("config: debounce must not be negative, got %v", c.Debounce)
	}
	if err := checkAngle("valve open angle", c.ValveOpenAngle); err != nil {
		return err
	}
	if err := checkAngle("valve close angle", c.ValveCloseAngle); err != nil {
		return err
	}
	switch c.Interlock {
	case InterlockLegacy, InterlockStrict:
	default:
		return fmt.Errorf("config: unknown interlock mode %q", c.Interlock)
	}
	return nil
}

// CycleTime returns the nominal duration of one full dispense sequence.
func (c Config) CycleTime() time.Duration {
	return c.Doses.ValveTime(c.DoseUnit) + time.Duration(c.Doses.Len())*c.PumpDuration
}

// Rest returns the safe output configuration: everything stopped, valve closed.
func (c Config) Rest() Outputs {
	return Outputs{
		Motor:      DriveStop,
		Pump:       DriveStop,
		ValveAngle: c.ValveCloseAngle,
	}
}

func checkAngle(name string, v int) error {
	if v < 0 || v > 180 {
		return fmt.Errorf("config: %s must be within 0..180, got %d", name, v)
	}
	return nil
}
