// Package button turns the two raw active-low button lines into clean
// logical press/release events, and watches press timing for the
// quick-press gesture that switches the badge into game mode.
package button

import (
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
)

// State is the debounce position for one button.
type State uint8

const (
	Idle State = iota
	PressTiming
	Pressed
	ReleaseTiming
	Released
)

// Debouncer filters one raw button line. Poll it once per main-loop
// iteration; a state only commits after the raw level has held for the
// guard interval, so contact bounce shorter than the guard can never
// produce a logical edge.
type Debouncer struct {
	raw   func() bool // true while the contact is closed
	guard uint32
	timer *charlie.Timer
	state State
	down  bool // committed logical level; flips only on commit
	edge  bool
}

// NewDebouncer builds a debouncer over a raw sampler. The guard timer
// must come from the scanner servicing this badge so it counts real
// awake milliseconds.
func NewDebouncer(raw func() bool, timer *charlie.Timer, guardMS uint32) *Debouncer {
	return &Debouncer{raw: raw, guard: guardMS, timer: timer}
}

// Poll advances the debounce state machine by one sample.
func (d *Debouncer) Poll() {
	d.edge = false
	if d.raw() {
		switch d.state {
		case Pressed:
			// already committed
		case PressTiming:
			if d.timer.Expired() {
				d.state = Pressed
				if !d.down {
					d.down = true
					d.edge = true
				}
			}
		default:
			d.state = PressTiming
			d.timer.Arm(d.guard)
		}
		return
	}
	switch d.state {
	case Idle, Released:
	case ReleaseTiming:
		if d.timer.Expired() {
			d.state = Released
			d.down = false
		}
	default:
		d.state = ReleaseTiming
		d.timer.Arm(d.guard)
	}
}

// IsPressed reflects the committed logical level: true from the poll
// that commits a press until the poll that commits the matching
// release. Bounce shorter than the guard never changes it.
func (d *Debouncer) IsPressed() bool { return d.down }

// PressedEdge is true for the single Poll that committed a new press.
func (d *Debouncer) PressedEdge() bool { return d.edge }

// Pending reports whether a guard interval is still running.
func (d *Debouncer) Pending() bool {
	return (d.state == PressTiming || d.state == ReleaseTiming) && d.timer.Pending()
}

// State returns the current debounce state.
func (d *Debouncer) State() State { return d.state }

// Rearm resets the machine after a wake. A button already held is
// treated as a fresh press: it restarts the guard interval so its
// pattern retriggers as soon as the press commits.
func (d *Debouncer) Rearm() {
	d.edge = false
	d.down = false
	if d.raw() {
		d.state = PressTiming
		d.timer.Arm(d.guard)
		return
	}
	d.state = Idle
	d.timer.Arm(0)
}
