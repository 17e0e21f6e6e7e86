// Package badge wires the multiplex scanner, button watcher, pattern
// engines and power manager into one runnable firmware image over a
// hal.Board. Tick and Step expose the two execution contexts directly
// so tests and the soak tool can drive the whole machine with no clock
// and no goroutines.
package badge

import (
	"context"
	"time"

	"github.com/coreman2200/funtimes-charliebadge/internal/button"
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/config"
	"github.com/coreman2200/funtimes-charliebadge/internal/diag"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/pattern"
	"github.com/coreman2200/funtimes-charliebadge/internal/power"
)

// Badge is one badge instance: a HAL plus every piece of core state.
type Badge struct {
	hw     hal.Board
	timing config.Timing

	Lights  *charlie.Lights
	Scanner *charlie.Scanner
	Watch   *button.Watcher
	Left    *pattern.Flash
	Right   *pattern.Flash
	Game    *pattern.Game
	Power   *power.Manager

	// OnDiag, when set, receives mode-switch and power events. The sim
	// host forwards them to clients; headless runs leave it nil.
	OnDiag func(d diag.Diagnostic)
}

// leftMarch and rightMarch list each side's colors in march order.
var (
	rightMarch = [4]charlie.LED{charlie.RightRed, charlie.RightGreen, charlie.RightBlue, charlie.RightYellow}
	leftMarch  = [4]charlie.LED{charlie.LeftRed, charlie.LeftGreen, charlie.LeftBlue, charlie.LeftYellow}
)

func New(hw hal.Board, t config.Timing) *Badge {
	b := &Badge{hw: hw, timing: t}

	b.Lights = &charlie.Lights{}
	b.Scanner = charlie.NewScanner(hw, b.Lights)

	leftDeb := button.NewDebouncer(func() bool { return hw.Raw(hal.Left) }, b.Scanner.NewTimer(), t.DebounceMS)
	rightDeb := button.NewDebouncer(func() bool { return hw.Raw(hal.Right) }, b.Scanner.NewTimer(), t.DebounceMS)
	b.Watch = button.NewWatcher(leftDeb, rightDeb, b.Scanner.AwakeMS, t.QuickWindowMS, t.GestureCount)

	fcfg := pattern.FlashConfig{
		BaseDelayMS:  t.BaseDelayMS,
		FloorDelayMS: t.FloorDelayMS,
		BlinkBaseMS:  t.BlinkBaseMS,
		BlinkFloorMS: t.BlinkFloorMS,
	}
	b.Right = pattern.NewFlash(b.Lights, b.Scanner.NewTimer(), rightMarch, rightDeb.IsPressed, fcfg)
	b.Left = pattern.NewFlash(b.Lights, b.Scanner.NewTimer(), leftMarch, leftDeb.IsPressed, fcfg)
	b.Game = pattern.NewGame(b.Lights, hw, b.Scanner.NewTimer(), pattern.GameConfig{
		DecayPeriodMS: t.DecayPeriodMS,
		WinBlinks:     t.WinBlinks,
		WinBlinkMS:    t.WinBlinkMS,
	})
	b.Game.OnWin = func() {
		b.diag(diag.Info, "GAME.WIN", "all eight lit, board reset")
	}

	b.Power = power.NewManager(b.Scanner, b.Scanner.NewTimer(), power.Hooks{
		AnyActive: b.anyActive,
		Pending:   b.Watch.AnyPending,
		CancelAll: b.cancelAll,
		Poll:      b.Watch.Poll,
		Rearm:     b.Watch.Rearm,
		DelayMS:   hw.DelayMS,
		Sleep:     b.sleep,
	}, power.Config{
		SettleMS:    t.SettleMS,
		CountdownMS: t.ShutdownMS,
		CeilingMS:   t.CeilingMS,
	})

	return b
}

// Tick services one multiplex slot. Tick context only.
func (b *Badge) Tick() { b.Scanner.Tick() }

// Step runs one main-loop iteration: buttons, engines, power.
func (b *Badge) Step() {
	if !b.Power.Draining() {
		b.dispatch(b.Watch.Poll())
		b.Right.Poll()
		b.Left.Poll()
		b.Game.Poll()
	}
	ev, slept := b.Power.Poll()
	b.dispatch(ev)
	if slept {
		b.diag(diag.Info, "POWER.WAKE", "woken by button edge")
	}
}

// dispatch routes confirmed button edges. While the game owns the
// board, presses feed it; otherwise each side's press retriggers that
// side's flash.
func (b *Badge) dispatch(ev button.Events) {
	if ev == 0 {
		return
	}
	if ev.Has(button.GameGesture) {
		b.Right.Cancel()
		b.Left.Cancel()
		b.Game.Start()
		b.diag(diag.Info, "GAME.START", "quick-press gesture detected")
		return
	}
	if b.Game.Active() {
		if ev.Has(button.RightPressed) {
			b.Game.Press(ev.Has(button.RightQuick))
		}
		return
	}
	if ev.Has(button.LeftPressed) {
		b.Left.Trigger()
	}
	if ev.Has(button.RightPressed) {
		b.Right.Trigger()
	}
}

func (b *Badge) anyActive() bool {
	return b.Right.Active() || b.Left.Active() || b.Game.Active()
}

func (b *Badge) cancelAll() {
	b.Right.Cancel()
	b.Left.Cancel()
	b.Game.Cancel()
	b.Lights.Set(0)
}

func (b *Badge) sleep() {
	b.diag(diag.Info, "POWER.SLEEP", "entering low-power sleep")
	b.hw.Sleep()
}

func (b *Badge) diag(sev diag.Severity, code, summary string) {
	if b.OnDiag != nil {
		b.OnDiag(diag.Diagnostic{Severity: sev, Code: code, Summary: summary})
	}
}

// Run drives the badge in real time: the tick goroutine stands in for
// the hardware timer interrupt, the calling goroutine is the main loop.
// Step rate is one iteration per millisecond, which keeps every guard
// interval several polls wide. Returns when ctx is cancelled.
func (b *Badge) Run(ctx context.Context) {
	tick := time.NewTicker(time.Duration(b.timing.TickUS) * time.Microsecond)
	defer tick.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				b.Tick()
			}
		}
	}()

	step := time.NewTicker(time.Millisecond)
	defer step.Stop()
	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case <-step.C:
			b.Step()
		}
	}
}
