package logic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDoses returns the stock five-stage schedule, in dose units.
func DefaultDoses() []int {
	return []int{1, 2, 3, 4, 8}
}

// DoseSchedule is an immutable ordered list of dose stages. Each stage value
// is the number of dose units the valve stays open for that stage.
type DoseSchedule struct {
	stages []int
}

// NewDoseSchedule builds a schedule from the given stage values.
// All values must be positive and at least one stage is required.
func NewDoseSchedule(stages ...int) (DoseSchedule, error) {
	if len(stages) == 0 {
		return DoseSchedule{}, errors.New("dose schedule: no stages")
	}
	for i, s := range stages {
		if s <= 0 {
			return DoseSchedule{}, fmt.Errorf("dose schedule: stage %d must be positive, got %d", i+1, s)
		}
	}
	cp := make([]int, len(stages))
	copy(cp, stages)
	return DoseSchedule{stages: cp}, nil
}

// ParseDoseSchedule parses a comma-separated list such as "1,2,3,4,8".
func ParseDoseSchedule(s string) (DoseSchedule, error) {
	if strings.TrimSpace(s) == "" {
		return DoseSchedule{}, errors.New("dose schedule: empty")
	}
	parts := strings.Split(s, ",")
	stages := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return DoseSchedule{}, fmt.Errorf("dose schedule: %q: %w", p, err)
		}
		stages = append(stages, v)
	}
	return NewDoseSchedule(stages...)
}

// Len returns the number of stages.
func (d DoseSchedule) Len() int {
	return len(d.stages)
}

// Stage returns the value of the i-th stage (0-based).
func (d DoseSchedule) Stage(i int) int {
	return d.stages[i]
}

// Stages returns a copy of the stage values.
func (d DoseSchedule) Stages() []int {
	cp := make([]int, len(d.stages))
	copy(cp, d.stages)
	return cp
}

// ValveTime returns the total valve-open time for the schedule.
func (d DoseSchedule) ValveTime(unit time.Duration) time.Duration {
	var total time.Duration
	for _, s := range d.stages {
		total += time.Duration(s) * unit
	}
	return total
}

// String formats the schedule the way ParseDoseSchedule accepts it.
func (d DoseSchedule) String() string {
	parts := make([]string, len(d.stages))
	for i, s := range d.stages {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}
