//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip   *gpiocdev.Chip
	start  *gpiocdev.Line
	estop  *gpiocdev.Line
	limit  *gpiocdev.Line
	object *gpiocdev.Line
}

// NewRealReader requests the four input lines on the named chip (e.g. "gpiochip0").
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}

	// Buttons and the limit switch close to ground and rely on the pull-up.
	// The object sensor drives its own output, so bias is left off.
	requests := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
		bias gpiocdev.LineReqOption
	}{
		{"start", pins.Start, &r.start, gpiocdev.WithPullUp},
		{"estop", pins.EStop, &r.estop, gpiocdev.WithPullUp},
		{"limit", pins.Limit, &r.limit, gpiocdev.WithPullUp},
		{"object", pins.Object, &r.object, gpiocdev.WithBiasDisabled},
	}
	for _, req := range requests {
		line, err := chip.RequestLine(req.pin, gpiocdev.AsInput, req.bias)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.pin, err)
		}
		*req.dst = line
	}

	return r, nil
}

// Read returns the logical state of the inputs.
// All inputs are active-low: raw 0 = asserted.
func (r *RealReader) Read() (Sample, error) {
	var s Sample
	reads := []struct {
		name string
		line *gpiocdev.Line
		dst  *bool
	}{
		{"start", r.start, &s.Start},
		{"estop", r.estop, &s.EStop},
		{"limit", r.limit, &s.Limit},
		{"object", r.object, &s.Object},
	}
	for _, rd := range reads {
		raw, err := rd.line.Value()
		if err != nil {
			return Sample{}, fmt.Errorf("read %s pin: %w", rd.name, err)
		}
		*rd.dst = raw == 0
	}
	return s, nil
}

// Close returns every line to an input with pull-down, the Pi's boot
// default, before releasing it, so wiring on the pins cannot upset the next boot.
func (r *RealReader) Close() error {
	var lines []lineReleaser
	for _, l := range []*gpiocdev.Line{r.start, r.estop, r.limit, r.object} {
		if l != nil {
			lines = append(lines, l)
		}
	}
	err := releaseLines(lines)
	if r.chip != nil {
		if cerr := r.chip.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close chip: %w", cerr))
		}
	}
	return err
}

type lineReleaser interface {
	Reconfigure(options ...gpiocdev.LineConfigOption) error
	Close() error
}

func releaseLines(lines []lineReleaser) error {
	var errs []error
	for _, l := range lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	return errors.Join(errs...)
}
