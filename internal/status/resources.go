package status

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/process"
)

// Resources is the daemon's own CPU and memory use.
type Resources struct {
	CPUPercent float64
	RSSBytes   uint64
}

// ReadResources samples the current process.
func ReadResources() (Resources, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Resources{}, fmt.Errorf("open process: %w", err)
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		return Resources{}, fmt.Errorf("cpu percent: %w", err)
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return Resources{}, fmt.Errorf("memory info: %w", err)
	}

	return Resources{CPUPercent: cpu, RSSBytes: mem.RSS}, nil
}
