// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the dispenser's digital inputs.
type Reader interface {
	// Read returns the logical state of all four inputs.
	// The raw GPIO values are active-low: raw 0 = logical asserted.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Sample is a single reading of the four inputs (already in logical form).
type Sample struct {
	Start  bool // start button pressed
	EStop  bool // emergency stop asserted
	Limit  bool // limit switch closed
	Object bool // object-presence sensor triggered
}

// Pins holds the BCM line offsets of the four inputs.
type Pins struct {
	Start  int
	EStop  int
	Limit  int
	Object int
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinStart  = 5
	DefaultPinEStop  = 6
	DefaultPinLimit  = 13
	DefaultPinObject = 19
)

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		Start:  DefaultPinStart,
		EStop:  DefaultPinEStop,
		Limit:  DefaultPinLimit,
		Object: DefaultPinObject,
	}
}
