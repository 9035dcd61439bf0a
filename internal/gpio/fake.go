package gpio

import "errors"

// ErrNoSamples is returned by a FakeReader with an empty script.
var ErrNoSamples = errors.New("gpio: fake reader has no samples")

// FakeReader replays a scripted sequence of samples. Once the script runs
// out the final sample is held, like a line that stops changing.
type FakeReader struct {
	Samples []Sample

	// ReadError, when non-nil, fails every Read.
	ReadError error

	// Reads counts calls to Read, including failed ones.
	Reads  int
	Closed bool

	pos int
}

func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

func (f *FakeReader) Read() (Sample, error) {
	f.Reads++
	switch {
	case f.ReadError != nil:
		return Sample{}, f.ReadError
	case len(f.Samples) == 0:
		return Sample{}, ErrNoSamples
	}

	s := f.Samples[f.pos]
	if f.pos+1 < len(f.Samples) {
		f.pos++
	}
	return s, nil
}

func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script and clears the read counter.
func (f *FakeReader) Reset() {
	f.pos, f.Reads = 0, 0
	f.Closed = false
}
