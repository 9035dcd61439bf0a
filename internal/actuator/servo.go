package actuator

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultServoPin is the Pi header pin with hardware PWM0.
const DefaultServoPin = "GPIO18"

// Hobby servo timing: 50 Hz frame, 544..2400 us pulse over 0..180 degrees.
const (
	ServoFrequency = 50 * physic.Hertz
	ServoPeriod    = 20 * time.Millisecond
	ServoMinPulse  = 544 * time.Microsecond
	ServoMaxPulse  = 2400 * time.Microsecond
)

// PWMPin is the part of a periph gpio.PinIO the servo uses.
type PWMPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// Servo positions a hobby servo on a PWM-capable pin.
type Servo struct {
	pin PWMPin
}

// NewServo wraps pin. Nothing is driven until the first SetAngle.
func NewServo(pin PWMPin) *Servo {
	return &Servo{pin: pin}
}

// PulseWidth returns the pulse width for an angle in degrees.
func PulseWidth(angle int) time.Duration {
	span := ServoMaxPulse - ServoMinPulse
	return ServoMinPulse + span*time.Duration(angle)/180
}

// ServoDuty returns the duty cycle producing the pulse for angle.
func ServoDuty(angle int) gpio.Duty {
	return gpio.Duty(int64(gpio.DutyMax) * int64(PulseWidth(angle)) / int64(ServoPeriod))
}

// SetAngle moves the servo to angle (0..180).
func (s *Servo) SetAngle(angle int) error {
	if angle < 0 || angle > 180 {
		return fmt.Errorf("servo angle %d out of range 0..180", angle)
	}
	if err := s.pin.PWM(ServoDuty(angle), ServoFrequency); err != nil {
		return fmt.Errorf("servo pwm: %w", err)
	}
	return nil
}

// Disable stops the PWM output, leaving the servo unpowered in place.
func (s *Servo) Disable() error {
	if err := s.pin.Halt(); err != nil {
		return fmt.Errorf("servo halt: %w", err)
	}
	return nil
}
