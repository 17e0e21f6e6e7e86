// Package sim is a software model of the badge board: it decodes the
// 4-pin bus writes back into "which LED is conducting", fakes the two
// buttons (with optional contact bounce), and implements sleep as a
// wait on a button-change signal. It is the board the simulator, the
// soak tool and the tests all run against.
package sim

import (
	"sync"
	"time"

	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
)

// Board implements hal.Board in memory.
type Board struct {
	mu      sync.Mutex
	dir     hal.Mask4
	level   hal.Mask4
	lit     int // decoded conducting LED slot, -1 when dark
	seen    charlie.LED
	pressed [2]bool

	wake chan struct{}

	// DelayFunc and SleepFunc replace the real-time implementations.
	// Deterministic hosts point DelayFunc at their own tick pump and
	// SleepFunc at a scripted wake.
	DelayFunc func(ms int)
	SleepFunc func()
}

func New() *Board {
	return &Board{lit: -1, wake: make(chan struct{}, 1)}
}

// Configure applies a bus write and decodes the resulting state.
func (b *Board) Configure(dir, level hal.Mask4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dir, b.level = dir, level&dir
	b.lit = -1
	for slot := 0; slot < charlie.Slots; slot++ {
		p := charlie.SlotConfig(slot)
		if b.dir == p.Dir && b.level == p.Level {
			b.lit = slot
			b.seen |= 1 << slot
			break
		}
	}
}

// Lit returns the slot of the LED conducting right now, or -1.
func (b *Board) Lit() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lit
}

// Bus returns the raw direction/level state of the shared pins.
func (b *Board) Bus() (dir, level hal.Mask4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dir, b.level
}

// Seen returns and clears the set of LEDs that have conducted since the
// last call. One full scan with a stable mask makes Seen equal the mask.
func (b *Board) Seen() charlie.LED {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.seen
	b.seen = 0
	return s
}

// Raw reports the instantaneous button state, true while held.
func (b *Board) Raw(s hal.Side) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed[s]
}

// Press closes a button contact and raises the wake signal.
func (b *Board) Press(s hal.Side) { b.set(s, true) }

// Release opens a button contact and raises the wake signal.
func (b *Board) Release(s hal.Side) { b.set(s, false) }

func (b *Board) set(s hal.Side, down bool) {
	b.mu.Lock()
	changed := b.pressed[s] != down
	b.pressed[s] = down
	b.mu.Unlock()
	if changed {
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
}

// Bounce toggles a held contact open and closed again, modelling the
// mechanical chatter the debouncer has to reject. The caller advances
// time between the two edges.
func (b *Board) Bounce(s hal.Side) {
	b.set(s, false)
	b.set(s, true)
}

// DelayMS blocks for n milliseconds, or runs DelayFunc when set.
func (b *Board) DelayMS(n int) {
	if b.DelayFunc != nil {
		b.DelayFunc(n)
		return
	}
	time.Sleep(time.Duration(n) * time.Millisecond)
}

// Sleep blocks until the next button edge, or runs SleepFunc when set.
// Edges raised before entry are discarded, matching the cleared
// interrupt-on-change flags of the real part.
func (b *Board) Sleep() {
	if b.SleepFunc != nil {
		b.SleepFunc()
		return
	}
	select {
	case <-b.wake:
	default:
	}
	<-b.wake
}
