// Package script replays timed button sequences against a simulated
// board, for the soak tool and integration tests.
package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
)

// Event is one button edge at an absolute script time.
type Event struct {
	AtMS   uint64 `yaml:"at_ms"`
	Button string `yaml:"button"` // "left" | "right"
	Action string `yaml:"action"` // "press" | "release" | "bounce"
}

// Script is a named scenario. Events must be sorted by AtMS.
type Script struct {
	Name       string  `yaml:"name"`
	DurationMS uint64  `yaml:"duration_ms"`
	Events     []Event `yaml:"events"`
}

func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	last := uint64(0)
	for i, e := range s.Events {
		if e.AtMS < last {
			return fmt.Errorf("event %d: out of order at_ms %d", i, e.AtMS)
		}
		last = e.AtMS
		if _, err := side(e.Button); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		switch e.Action {
		case "press", "release", "bounce":
		default:
			return fmt.Errorf("event %d: unknown action %q", i, e.Action)
		}
	}
	return nil
}

func side(name string) (hal.Side, error) {
	switch name {
	case "left":
		return hal.Left, nil
	case "right":
		return hal.Right, nil
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Runner steps a script against a board, one simulated millisecond at a
// time.
type Runner struct {
	s    *Script
	next int
}

func NewRunner(s *Script) *Runner { return &Runner{s: s} }

// Step applies every event due at nowMS and reports whether the script
// is still running; it returns false once nowMS passes the duration.
func (r *Runner) Step(nowMS uint64, board *sim.Board) bool {
	for r.next < len(r.s.Events) && r.s.Events[r.next].AtMS <= nowMS {
		e := r.s.Events[r.next]
		s, _ := side(e.Button)
		switch e.Action {
		case "press":
			board.Press(s)
		case "release":
			board.Release(s)
		case "bounce":
			board.Bounce(s)
		}
		r.next++
	}
	return nowMS < r.s.DurationMS
}
