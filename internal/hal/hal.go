// Package hal declares the hardware capabilities the badge core consumes.
// The four shared LED pins are addressed as a 4-bit bus; the two push
// buttons are raw active-low inputs. Everything else (clock setup, pin
// muxing, interrupt wiring) belongs to the implementation behind these
// interfaces.
package hal

// Mask4 selects pins on the shared 4-pin LED bus, one bit per pin
// (bit 0 = pin A .. bit 3 = pin D).
type Mask4 uint8

const (
	// AllOutputs drives every bus pin as an output.
	AllOutputs Mask4 = 0x0F
	// AllLow holds every driven pin at the low level.
	AllLow Mask4 = 0x00
)

// Side identifies one of the two push buttons.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// PinBus rewrites the direction and level of the four shared pins in one
// call. A clear bit in dir tri-states that pin; level bits are ignored
// for tri-stated pins. Implementations must apply both masks before
// returning so the multiplexer never observes a half-applied slot.
type PinBus interface {
	Configure(dir, level Mask4)
}

// Buttons samples the instantaneous electrical state of a push button.
// The result is true while the contact is closed (the line is pulled
// low); no debouncing is applied.
type Buttons interface {
	Raw(s Side) bool
}

// Waiter blocks the calling context for n milliseconds. Used only for
// the pre-sleep blank settle and the game's win blink.
type Waiter interface {
	DelayMS(n int)
}

// Sleeper suspends execution until a button line changes state.
type Sleeper interface {
	Sleep()
}

// Board is the full capability set a badge runs against.
type Board interface {
	PinBus
	Buttons
	Waiter
	Sleeper
}
