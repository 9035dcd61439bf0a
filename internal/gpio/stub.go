//go:build !linux

package gpio

import (
	"fmt"
	"runtime"
)

var errNoCdev = fmt.Errorf("gpio: character device lines need linux, running on %s", runtime.GOOS)

// RealReader exists off Linux only so cmd/dispenser builds for development.
type RealReader struct{}

func NewRealReader(chip string, pins Pins) (*RealReader, error) { return nil, errNoCdev }

func (*RealReader) Read() (Sample, error) { return Sample{}, errNoCdev }

func (*RealReader) Close() error { return nil }
