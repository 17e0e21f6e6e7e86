// Package power decides when the badge gives up and goes to sleep. It
// is polled once per main-loop iteration: when nothing is animating and
// no button is mid-debounce, or when the awake ceiling is hit, it
// blanks the board, waits out a short abort window, and suspends the
// processor until a button edge wakes it.
package power

import (
	"github.com/coreman2200/funtimes-charliebadge/internal/button"
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
)

// Config carries the power manager's timing constants.
type Config struct {
	// SettleMS is the blocking delay after blanking, long enough for the
	// last multiplex pass to leave every pin in the inactive state.
	SettleMS int
	// CountdownMS is the abort window: a press confirmed before it runs
	// out cancels the sleep transition.
	CountdownMS uint32
	// CeilingMS is the hard awake-time cutoff. A stuck button or runaway
	// pattern cannot keep the board alive past it.
	CeilingMS uint64
}

// Hooks are the main-loop callbacks the manager drives during a sleep
// transition.
type Hooks struct {
	// AnyActive reports whether any pattern engine is mid-sequence.
	AnyActive func() bool
	// Pending reports whether either button is mid-guard-interval.
	Pending func() bool
	// CancelAll parks every engine and darkens the board.
	CancelAll func()
	// Poll samples the buttons once and returns the edges seen.
	Poll func() button.Events
	// Rearm resets button state after a wake so a held button counts as
	// a fresh press.
	Rearm func()
	// DelayMS is the blocking millisecond delay primitive.
	DelayMS func(n int)
	// Sleep suspends execution until a button line changes.
	Sleep func()
}

type state uint8

const (
	running state = iota
	draining
)

// Manager tracks the idle-shutdown countdown against the awake clock.
type Manager struct {
	scan     *charlie.Scanner
	shutdown *charlie.Timer
	hooks    Hooks
	cfg      Config
	state    state
}

func NewManager(scan *charlie.Scanner, shutdown *charlie.Timer, hooks Hooks, cfg Config) *Manager {
	return &Manager{scan: scan, shutdown: shutdown, hooks: hooks, cfg: cfg}
}

// Draining reports whether a sleep transition is in progress.
func (m *Manager) Draining() bool { return m.state == draining }

// Poll runs one power-management check. The returned events are button
// edges consumed while waiting out the abort window; the caller must
// dispatch them exactly as it would its own. slept is true when the
// badge went to sleep and has since been woken by a button edge.
func (m *Manager) Poll() (ev button.Events, slept bool) {
	switch m.state {
	case running:
		idle := !m.hooks.AnyActive() && !m.hooks.Pending()
		if !idle && m.scan.AwakeMS() <= m.cfg.CeilingMS {
			return 0, false
		}
		// Begin shutdown. The ceiling path cuts animations off
		// mid-sequence; both paths leave the board dark.
		m.hooks.CancelAll()
		m.hooks.DelayMS(m.cfg.SettleMS)
		m.shutdown.Arm(m.cfg.CountdownMS)
		m.state = draining
		return 0, false

	case draining:
		ev = m.hooks.Poll()
		if ev.Has(button.LeftPressed | button.RightPressed) {
			// A press landed inside the abort window: stay awake and let
			// the caller route the edge to its pattern.
			m.state = running
			return ev, false
		}
		if !m.shutdown.Expired() {
			return 0, false
		}
		m.hooks.Sleep()
		m.scan.ResetAwake()
		m.hooks.Rearm()
		m.state = running
		return 0, true
	}

	m.state = running
	return 0, false
}
