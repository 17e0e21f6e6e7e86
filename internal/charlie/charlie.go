// Package charlie is the time-multiplexed driver for the badge's eight
// Charlieplexed LEDs. Eight scan slots are walked at the hardware tick
// rate; each slot drives the four shared pins so that at most one LED
// conducts. Eight consecutive ticks span one millisecond, and the slot
// wrap is where all millisecond bookkeeping (awake clock, countdown
// timers) happens.
package charlie

import (
	"sync/atomic"

	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
)

// LED is a bitmask over the eight logical LEDs. Bit order matches scan
// slot order.
type LED uint8

const (
	RightRed LED = 1 << iota
	RightGreen
	RightBlue
	RightYellow
	LeftYellow
	LeftBlue
	LeftGreen
	LeftRed
)

const (
	RightSide = RightRed | RightGreen | RightBlue | RightYellow
	LeftSide  = LeftYellow | LeftBlue | LeftGreen | LeftRed
	All       = RightSide | LeftSide
)

// Slots is the number of scan positions in one multiplex cycle.
const Slots = 8

// PinPair is the bus configuration that lights exactly one LED: one pin
// driven high, one driven low, the other two tri-stated.
type PinPair struct {
	Dir   hal.Mask4
	Level hal.Mask4
}

// slotTable maps scan slot -> bus configuration, in LED bit order.
// Derived from the board netlist: pins A..D are the four shared lines.
var slotTable = [Slots]PinPair{
	{Dir: 0b0011, Level: 0b0001}, // right red:    A high, B low
	{Dir: 0b0011, Level: 0b0010}, // right green:  B high, A low
	{Dir: 0b1100, Level: 0b0100}, // right blue:   C high, D low
	{Dir: 0b1100, Level: 0b1000}, // right yellow: D high, C low
	{Dir: 0b1001, Level: 0b1000}, // left yellow:  D high, A low
	{Dir: 0b1001, Level: 0b0001}, // left blue:    A high, D low
	{Dir: 0b0110, Level: 0b0100}, // left green:   C high, B low
	{Dir: 0b0110, Level: 0b0010}, // left red:     B high, C low
}

// SlotConfig returns the bus configuration for one scan slot.
func SlotConfig(slot int) PinPair { return slotTable[slot] }

// Lights is the shared LED-on set: written from the main-loop context
// by the pattern engines, read from the tick context by the scanner.
// The atomic cell is what lets the two contexts share it without a
// lock; each bit still has exactly one writer.
type Lights struct {
	bits atomic.Uint32
}

// Mask returns the current LED-on set.
func (l *Lights) Mask() LED { return LED(l.bits.Load()) }

// On adds leds to the set.
func (l *Lights) On(leds LED) { l.bits.Store(l.bits.Load() | uint32(leds)) }

// Off removes leds from the set.
func (l *Lights) Off(leds LED) { l.bits.Store(l.bits.Load() &^ uint32(leds)) }

// Set replaces the whole set.
func (l *Lights) Set(leds LED) { l.bits.Store(uint32(leds)) }

// Replace clears every bit in group and sets sel, in one store. Pattern
// engines use it to keep their side's bits mutually exclusive.
func (l *Lights) Replace(group, sel LED) {
	l.bits.Store(l.bits.Load()&^uint32(group) | uint32(sel&group))
}

// Timer is a millisecond countdown. The scanner decrements it once per
// scan wrap while nonzero; it parks at zero and never underflows. Armed
// from the main-loop context, decremented from the tick context.
type Timer struct {
	ms atomic.Uint32
}

// Arm loads the countdown with ms milliseconds.
func (t *Timer) Arm(ms uint32) { t.ms.Store(ms) }

// Expired reports whether the countdown has reached zero.
func (t *Timer) Expired() bool { return t.ms.Load() == 0 }

// Pending reports whether the countdown is still running.
func (t *Timer) Pending() bool { return t.ms.Load() != 0 }

// Remaining returns the milliseconds left.
func (t *Timer) Remaining() uint32 { return t.ms.Load() }

func (t *Timer) decrement() {
	for {
		v := t.ms.Load()
		if v == 0 {
			return
		}
		if t.ms.CompareAndSwap(v, v-1) {
			return
		}
	}
}

// Scanner owns the scan position and the tick-context half of the
// shared state. Tick is the only method meant to run in the tick
// context; everything it mutates (slot, awake clock, timer decrements)
// is owned by it alone.
type Scanner struct {
	pins   hal.PinBus
	lights *Lights
	slot   int
	awake  atomic.Uint64
	timers []*Timer
}

func NewScanner(pins hal.PinBus, lights *Lights) *Scanner {
	return &Scanner{pins: pins, lights: lights}
}

// NewTimer allocates a countdown serviced by this scanner. Must be
// called before ticking starts; the timer list is not guarded.
func (s *Scanner) NewTimer() *Timer {
	t := &Timer{}
	s.timers = append(s.timers, t)
	return t
}

// Tick services one scan slot. The bus is always reset to the inactive
// configuration (all outputs, all low) before the slot's LED is
// considered, so a previous slot's pin state can never leak into this
// one and light the wrong LED through the shared wiring.
func (s *Scanner) Tick() {
	s.pins.Configure(hal.AllOutputs, hal.AllLow)

	if s.lights.Mask()&(1<<s.slot) != 0 {
		p := slotTable[s.slot]
		s.pins.Configure(p.Dir, p.Level)
	}

	s.slot++
	if s.slot == Slots {
		s.slot = 0
		s.awake.Add(1)
		for _, t := range s.timers {
			t.decrement()
		}
	}
}

// AwakeMS returns milliseconds elapsed since the last wake.
func (s *Scanner) AwakeMS() uint64 { return s.awake.Load() }

// ResetAwake zeroes the awake clock. Called once per sleep/wake cycle.
func (s *Scanner) ResetAwake() { s.awake.Store(0) }
