// Package gpio runs the badge on real pins through periph.io, for
// Linux hosts with the LED matrix and buttons wired to GPIO headers.
package gpio

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
)

// Board drives the four shared LED lines and samples the two buttons.
type Board struct {
	pins    [4]gpio.PinIO
	buttons [2]gpio.PinIO
}

// Open initialises the periph host and claims the named pins. Button
// lines are configured pulled up with edge detection so Sleep can wait
// on them.
func Open(pins [4]string, buttons [2]string) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host: %w", err)
	}
	b := &Board{}
	for i, name := range pins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no such pin %q", name)
		}
		b.pins[i] = p
	}
	for i, name := range buttons {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no such pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("button %q: %w", name, err)
		}
		b.buttons[i] = p
	}
	b.Configure(hal.AllOutputs, hal.AllLow)
	return b, nil
}

// Configure rewrites the shared bus. Tri-stated pins float; the matrix
// relies on that to keep unselected LEDs below their forward voltage.
func (b *Board) Configure(dir, level hal.Mask4) {
	for i, p := range b.pins {
		bit := hal.Mask4(1) << i
		if dir&bit != 0 {
			_ = p.Out(gpio.Level(level&bit != 0))
		} else {
			_ = p.In(gpio.Float, gpio.NoEdge)
		}
	}
}

// Raw samples one button line; pressed pulls the line low.
func (b *Board) Raw(s hal.Side) bool {
	return b.buttons[s].Read() == gpio.Low
}

// DelayMS blocks for n milliseconds.
func (b *Board) DelayMS(n int) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

// Sleep waits for an edge on either button. periph exposes WaitForEdge
// per pin, so the two lines are polled alternately with a short
// timeout; wake latency is bounded by that timeout.
func (b *Board) Sleep() {
	for {
		for _, p := range b.buttons {
			if p.WaitForEdge(20 * time.Millisecond) {
				return
			}
		}
	}
}

// Close parks every line in the inactive state.
func (b *Board) Close() error {
	b.Configure(hal.AllOutputs, hal.AllLow)
	var err error
	for _, p := range b.pins {
		if e := p.Halt(); e != nil && err == nil {
			err = e
		}
	}
	for _, p := range b.buttons {
		if e := p.Halt(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
