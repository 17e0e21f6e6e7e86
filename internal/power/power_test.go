package power_test

import (
	"testing"

	"github.com/coreman2200/funtimes-charliebadge/internal/button"
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
	"github.com/coreman2200/funtimes-charliebadge/internal/power"
)

type powerRig struct {
	board *sim.Board
	scan  *charlie.Scanner
	mgr   *power.Manager

	active   bool
	pending  bool
	events   button.Events
	cancels  int
	rearms   int
	sleeps   int
	settleMS int
}

func newPowerRig(cfg power.Config) *powerRig {
	r := &powerRig{board: sim.New()}
	r.scan = charlie.NewScanner(r.board, &charlie.Lights{})
	r.mgr = power.NewManager(r.scan, r.scan.NewTimer(), power.Hooks{
		AnyActive: func() bool { return r.active },
		Pending:   func() bool { return r.pending },
		CancelAll: func() { r.cancels++; r.active = false },
		Poll: func() button.Events {
			ev := r.events
			r.events = 0
			return ev
		},
		Rearm:   func() { r.rearms++ },
		DelayMS: func(n int) { r.settleMS += n },
		Sleep:   func() { r.sleeps++ },
	}, cfg)
	return r
}

func (r *powerRig) stepMS(n int) (ev button.Events, slept bool) {
	for i := 0; i < n; i++ {
		e, s := r.mgr.Poll()
		ev |= e
		slept = slept || s
		for k := 0; k < charlie.Slots; k++ {
			r.scan.Tick()
		}
	}
	return ev, slept
}

// stepUntilSleep polls until the manager reports a completed
// sleep/wake cycle, returning right after the sleeping poll. A badge
// that stays idle re-drains and sleeps again on the next iterations,
// so per-episode assertions need to stop here.
func (r *powerRig) stepUntilSleep(limit int) bool {
	for i := 0; i < limit; i++ {
		if _, slept := r.mgr.Poll(); slept {
			return true
		}
		for k := 0; k < charlie.Slots; k++ {
			r.scan.Tick()
		}
	}
	return false
}

var cfg = power.Config{SettleMS: 10, CountdownMS: 50, CeilingMS: 1000}

func TestActiveBadgeStaysAwake(t *testing.T) {
	r := newPowerRig(cfg)
	r.active = true
	if _, slept := r.stepMS(200); slept || r.sleeps != 0 {
		t.Fatal("active badge must not sleep")
	}
	if r.cancels != 0 {
		t.Fatal("active badge must not be blanked")
	}
}

func TestIdleBadgeSleepsAfterCountdown(t *testing.T) {
	r := newPowerRig(cfg)
	if !r.stepUntilSleep(int(cfg.CountdownMS) + 5) {
		t.Fatal("idle badge never slept")
	}
	if r.sleeps != 1 || r.cancels != 1 || r.rearms != 1 {
		t.Fatalf("sleeps=%d cancels=%d rearms=%d, want 1 each", r.sleeps, r.cancels, r.rearms)
	}
	if r.settleMS != cfg.SettleMS {
		t.Fatalf("settle delay %dms, want %d", r.settleMS, cfg.SettleMS)
	}
	if r.scan.AwakeMS() != 0 {
		t.Fatalf("awake clock %dms not reset on wake", r.scan.AwakeMS())
	}
}

func TestStillIdleBadgeSleepsAgain(t *testing.T) {
	r := newPowerRig(cfg)
	for episode := 1; episode <= 3; episode++ {
		if !r.stepUntilSleep(int(cfg.CountdownMS) + 5) {
			t.Fatalf("episode %d: idle badge never slept", episode)
		}
		if r.sleeps != episode {
			t.Fatalf("sleeps=%d after episode %d", r.sleeps, episode)
		}
	}
}

func TestPressDuringCountdownAborts(t *testing.T) {
	r := newPowerRig(cfg)
	r.stepMS(2) // enter draining
	if !r.mgr.Draining() {
		t.Fatal("manager should be draining")
	}
	r.events = button.RightPressed
	ev, slept := r.stepMS(1)
	if slept || r.sleeps != 0 {
		t.Fatal("press during countdown must abort the sleep")
	}
	if !ev.Has(button.RightPressed) {
		t.Fatal("consumed press edge must be handed back to the caller")
	}
	if r.mgr.Draining() {
		t.Fatal("manager should be back to running")
	}
}

func TestCeilingForcesSleepWhileActive(t *testing.T) {
	r := newPowerRig(power.Config{SettleMS: 10, CountdownMS: 20, CeilingMS: 100})
	r.active = true
	if !r.stepUntilSleep(200) {
		t.Fatal("awake ceiling must force sleep mid-pattern")
	}
	if r.cancels != 1 {
		t.Fatalf("cancels=%d, ceiling path must blank the board", r.cancels)
	}
}

func TestPendingDebounceDefersSleep(t *testing.T) {
	r := newPowerRig(cfg)
	r.pending = true
	if _, slept := r.stepMS(100); slept {
		t.Fatal("badge slept with a debounce guard still running")
	}
	r.pending = false
	if _, slept := r.stepMS(int(cfg.CountdownMS) + 5); !slept {
		t.Fatal("badge never slept after guard cleared")
	}
}
