package logic

import "time"

// Debouncer accepts a level change only after it has been observed
// continuously for the debounce duration. A zero duration passes raw
// samples straight through.
type Debouncer struct {
	duration time.Duration
	ch       ChannelState
}

// NewDebouncer creates a debouncer with the given duration.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Update feeds a raw sample and reports whether the stable level changed.
// No change is ever reported while the baseline is being established.
func (d *Debouncer) Update(level bool, now time.Time) bool {
	ch := &d.ch

	if !ch.Baselined {
		if d.duration <= 0 {
			ch.Stable = level
			ch.Baselined = true
			return false
		}

		if !ch.HasPending || ch.Pending != level {
			// Start (or restart) observing
			ch.Pending = level
			ch.HasPending = true
			ch.PendingSince = now
			return false
		}

		if now.Sub(ch.PendingSince) >= d.duration {
			ch.Stable = level
			ch.Baselined = true
			ch.HasPending = false
		}
		return false
	}

	if level == ch.Stable {
		ch.HasPending = false
		return false
	}

	if d.duration <= 0 {
		ch.Stable = level
		return true
	}

	if !ch.HasPending || ch.Pending != level {
		ch.Pending = level
		ch.HasPending = true
		ch.PendingSince = now
		return false
	}

	if now.Sub(ch.PendingSince) >= d.duration {
		ch.Stable = level
		ch.HasPending = false
		return true
	}

	return false
}

// Stable returns the current debounced level.
func (d *Debouncer) Stable() bool {
	return d.ch.Stable
}

// Baselined reports whether a stable level has been established.
func (d *Debouncer) Baselined() bool {
	return d.ch.Baselined
}
