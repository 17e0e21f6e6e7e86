package charlie_test

import (
	"testing"

	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
)

func TestSlotTableDrivesExactlyOnePair(t *testing.T) {
	seen := map[charlie.PinPair]int{}
	for slot := 0; slot < charlie.Slots; slot++ {
		p := charlie.SlotConfig(slot)
		if n := popcount(p.Dir); n != 2 {
			t.Fatalf("slot %d: %d driven pins, want 2", slot, n)
		}
		if n := popcount(p.Level); n != 1 {
			t.Fatalf("slot %d: %d high pins, want 1", slot, n)
		}
		if p.Level&p.Dir != p.Level {
			t.Fatalf("slot %d: level %04b drives a tri-stated pin (dir %04b)", slot, p.Level, p.Dir)
		}
		seen[p]++
	}
	for p, n := range seen {
		if n != 1 {
			t.Fatalf("pin pair %+v appears %d times", p, n)
		}
	}
}

func TestScannerLightsOnlySelectedSlots(t *testing.T) {
	board := sim.New()
	lights := &charlie.Lights{}
	s := charlie.NewScanner(board, lights)

	lights.Set(charlie.RightBlue | charlie.LeftRed)
	board.Seen()
	for i := 0; i < charlie.Slots; i++ {
		s.Tick()
	}
	if got, want := board.Seen(), charlie.RightBlue|charlie.LeftRed; got != want {
		t.Fatalf("conducted %08b over one scan, want %08b", got, want)
	}
}

func TestScannerDarkSlotIsInactiveConfig(t *testing.T) {
	board := sim.New()
	lights := &charlie.Lights{}
	s := charlie.NewScanner(board, lights)

	// Nothing lit: every tick must leave the bus in the all-output,
	// all-low failsafe, with no leakage from the slot table.
	for i := 0; i < charlie.Slots; i++ {
		s.Tick()
		dir, level := board.Bus()
		if dir != hal.AllOutputs || level != hal.AllLow {
			t.Fatalf("tick %d: bus dir=%04b level=%04b, want inactive", i, dir, level)
		}
		if board.Lit() != -1 {
			t.Fatalf("tick %d: LED %d conducting with empty mask", i, board.Lit())
		}
	}
}

func TestTimersDecrementOncePerScanWrap(t *testing.T) {
	board := sim.New()
	lights := &charlie.Lights{}
	s := charlie.NewScanner(board, lights)
	tm := s.NewTimer()

	tm.Arm(3)
	for ms := 0; ms < 2; ms++ {
		for i := 0; i < charlie.Slots; i++ {
			s.Tick()
		}
	}
	if got := tm.Remaining(); got != 1 {
		t.Fatalf("remaining = %d after 2ms, want 1", got)
	}
	if s.AwakeMS() != 2 {
		t.Fatalf("awake = %d, want 2", s.AwakeMS())
	}
}

func TestTimerNeverUnderflows(t *testing.T) {
	board := sim.New()
	s := charlie.NewScanner(board, &charlie.Lights{})
	tm := s.NewTimer()

	tm.Arm(1)
	for ms := 0; ms < 5; ms++ {
		for i := 0; i < charlie.Slots; i++ {
			s.Tick()
		}
	}
	if !tm.Expired() || tm.Remaining() != 0 {
		t.Fatalf("timer remaining = %d, want parked at 0", tm.Remaining())
	}
}

func TestLightsReplaceKeepsOtherSide(t *testing.T) {
	l := &charlie.Lights{}
	l.Set(charlie.LeftGreen)
	l.Replace(charlie.RightSide, charlie.RightYellow)
	if got := l.Mask(); got != charlie.LeftGreen|charlie.RightYellow {
		t.Fatalf("mask = %08b", got)
	}
	l.Replace(charlie.RightSide, charlie.RightRed)
	if got := l.Mask(); got != charlie.LeftGreen|charlie.RightRed {
		t.Fatalf("mask = %08b, right side not exclusive", got)
	}
}

func popcount(m hal.Mask4) int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}
