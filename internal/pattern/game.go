package pattern

import (
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
)

// GameConfig carries the reaction game's timing constants.
type GameConfig struct {
	DecayPeriodMS uint32
	WinBlinks     int
	WinBlinkMS    int
}

// Game is the button-mashing reaction engine. The lit-count starts at
// one and climbs one LED per quick right press, in scan-slot order
// (right side first, then left). A decay tick takes one LED back every
// decay period, so only sustained fast pressing reaches all eight.
// Filling the board runs the win blink and resets the count.
type Game struct {
	lights *charlie.Lights
	wait   hal.Waiter
	decay  *charlie.Timer
	cfg    GameConfig

	active bool
	count  int

	// OnWin, when set, is called once per completed win blink.
	OnWin func()
}

func NewGame(lights *charlie.Lights, wait hal.Waiter, decay *charlie.Timer, cfg GameConfig) *Game {
	return &Game{lights: lights, wait: wait, decay: decay, cfg: cfg}
}

// Active reports whether the game owns the board.
func (g *Game) Active() bool { return g.active }

// Count returns the current lit-count.
func (g *Game) Count() int { return g.count }

// Start takes over the board with a single lit LED.
func (g *Game) Start() {
	g.active = true
	g.count = 1
	g.decay.Arm(g.cfg.DecayPeriodMS)
	g.show()
}

// Cancel releases the board and darkens it.
func (g *Game) Cancel() {
	g.active = false
	g.count = 0
	g.lights.Set(0)
}

// Press feeds one confirmed right press into the game. Only presses
// chained within the quick window advance the count; a slow press just
// keeps the game alive.
func (g *Game) Press(quick bool) {
	if !g.active || !quick {
		return
	}
	g.count++
	if g.count >= charlie.Slots {
		g.count = charlie.Slots
		g.show()
		g.winBlink()
		g.count = 0
	}
	g.show()
}

// Poll runs the decay: one LED back per decay period, never below zero.
func (g *Game) Poll() {
	if !g.active {
		return
	}
	if g.decay.Pending() {
		return
	}
	if g.count > 0 {
		g.count--
		g.show()
	}
	g.decay.Arm(g.cfg.DecayPeriodMS)
}

// show lights the first count LEDs. The fill order is exactly ascending
// bit order, so the lit set is a contiguous low mask.
func (g *Game) show() {
	mask := charlie.All
	if g.count < charlie.Slots {
		mask = charlie.LED(1)<<g.count - 1
	}
	g.lights.Set(mask)
}

// winBlink flashes the full board. This is one of the two places the
// firmware deliberately blocks on the millisecond delay primitive.
func (g *Game) winBlink() {
	for i := 0; i < g.cfg.WinBlinks; i++ {
		g.lights.Set(charlie.All)
		g.wait.DelayMS(g.cfg.WinBlinkMS)
		g.lights.Set(0)
		g.wait.DelayMS(g.cfg.WinBlinkMS)
	}
	if g.OnWin != nil {
		g.OnWin()
	}
}
