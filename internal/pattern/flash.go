// Package pattern holds the per-effect animation state machines. Each
// engine owns one countdown timer and a progress value, is polled once
// per main-loop iteration, and only advances when its timer has run
// out; polling while the timer is pending is a no-op.
package pattern

import (
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
)

// flashStep is the progress of a directional flash. Anything outside
// the named steps self-heals to flashOff.
type flashStep uint8

const (
	flashOff flashStep = iota
	march1
	march2
	march3
	march4
	clear    // terminal all-off step
	blinkOn  // all-four sub-pattern, lit half
	blinkOff // all-four sub-pattern, dark half
)

// FlashConfig carries the timing constants for one directional flash.
type FlashConfig struct {
	BaseDelayMS  uint32
	FloorDelayMS uint32
	BlinkBaseMS  uint32
	BlinkFloorMS uint32
}

// Flash is one side's flash/march engine: four colors in sequence at a
// base speed, looping back faster and faster while the button is held,
// then an all-four blink once the march delay hits its floor. Releasing
// the button at a checkpoint runs the terminal all-off step and parks
// the engine.
type Flash struct {
	lights *charlie.Lights
	held   func() bool
	delay  *charlie.Timer
	cfg    FlashConfig

	group charlie.LED    // every LED this side owns
	order [4]charlie.LED // march order

	step  flashStep
	speed uint32
	blink uint32
}

// NewFlash builds a flash engine over one side's LED group. order lists
// the side's colors in march order; held samples that side's debounced
// button.
func NewFlash(lights *charlie.Lights, delay *charlie.Timer, order [4]charlie.LED, held func() bool, cfg FlashConfig) *Flash {
	f := &Flash{
		lights: lights,
		held:   held,
		delay:  delay,
		cfg:    cfg,
		order:  order,
		group:  order[0] | order[1] | order[2] | order[3],
	}
	f.speed = cfg.BaseDelayMS
	f.blink = cfg.BlinkBaseMS
	return f
}

// Active reports whether the engine is mid-sequence.
func (f *Flash) Active() bool { return f.step != flashOff }

// Trigger (re)starts the march at the current speed. A press mid-run
// restarts the sequence without resetting the accumulated speed-up.
func (f *Flash) Trigger() {
	f.step = march1
	f.delay.Arm(0)
}

// Cancel parks the engine, darkens its side and restores base speed.
func (f *Flash) Cancel() {
	f.step = flashOff
	f.speed = f.cfg.BaseDelayMS
	f.blink = f.cfg.BlinkBaseMS
	f.lights.Off(f.group)
}

// Poll advances the machine by at most one step.
func (f *Flash) Poll() {
	if f.step == flashOff {
		return
	}
	if f.delay.Pending() {
		return
	}

	switch f.step {
	case march1, march2, march3, march4:
		f.lights.Replace(f.group, f.order[f.step-march1])
	case clear:
		f.lights.Off(f.group)
		f.step = flashOff
		f.speed = f.cfg.BaseDelayMS
		f.blink = f.cfg.BlinkBaseMS
		return
	case blinkOn:
		f.lights.Replace(f.group, f.group)
	case blinkOff:
		f.lights.Replace(f.group, 0)
	default:
		f.Cancel()
		return
	}

	f.advance()
}

// advance picks the next step and rearms the delay. march4 and blinkOff
// are the release checkpoints: the button state there decides between
// looping and the terminal step.
func (f *Flash) advance() {
	switch f.step {
	case march4:
		if !f.held() {
			f.step = clear
			break
		}
		if f.speed > f.cfg.FloorDelayMS {
			f.speed -= decay(f.speed)
			if f.speed < f.cfg.FloorDelayMS {
				f.speed = f.cfg.FloorDelayMS
			}
			f.step = march1
		} else {
			f.step = blinkOn
		}
	case blinkOn:
		f.step = blinkOff
	case blinkOff:
		if !f.held() {
			f.step = clear
			break
		}
		if f.blink > f.cfg.BlinkFloorMS {
			f.blink -= decay(f.blink)
			if f.blink < f.cfg.BlinkFloorMS {
				f.blink = f.cfg.BlinkFloorMS
			}
		}
		f.step = blinkOn
	default:
		f.step++
	}

	switch f.step {
	case blinkOn, blinkOff:
		f.delay.Arm(f.blink)
	default:
		f.delay.Arm(f.speed)
	}
}

// decay returns the per-loop delay reduction, an eighth of the current
// delay but never zero, so delays below 8ms still reach their floor.
func decay(ms uint32) uint32 {
	if d := ms / 8; d > 0 {
		return d
	}
	return 1
}
