// badgesoak replays a scripted button scenario against the firmware
// with a fully virtual clock and prints every LED-mask change, useful
// for eyeballing pattern timing without hardware or a browser.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/coreman2200/funtimes-charliebadge/internal/badge"
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/config"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
	"github.com/coreman2200/funtimes-charliebadge/internal/script"
)

func main() {
	var scriptPath string
	var configPath string
	flag.StringVar(&scriptPath, "script", "", "path to a scenario YAML")
	flag.StringVar(&configPath, "config", "", "optional config.yaml for timing overrides")
	flag.Parse()

	if scriptPath == "" {
		log.Fatal("provide -script path to a scenario YAML")
	}
	sc, err := script.Load(scriptPath)
	if err != nil {
		log.Fatalf("load script: %v", err)
	}

	timing := config.DefaultTiming()
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		timing = c.Timing
	}

	board := sim.New()
	b := badge.New(board, timing)
	runner := script.NewRunner(sc)

	now := uint64(0)
	running := true

	// advance moves virtual time forward one millisecond at a time:
	// script edges first, then the eight multiplex ticks for that
	// millisecond.
	advance := func(ms int) {
		for i := 0; i < ms; i++ {
			running = runner.Step(now, board) && running
			for t := 0; t < charlie.Slots; t++ {
				b.Tick()
			}
			now++
		}
	}
	board.DelayFunc = advance
	board.SleepFunc = func() {
		fmt.Printf("[%6dms] sleep\n", now)
		l0, r0 := board.Raw(hal.Left), board.Raw(hal.Right)
		for running {
			advance(1)
			if board.Raw(hal.Left) != l0 || board.Raw(hal.Right) != r0 {
				fmt.Printf("[%6dms] wake\n", now)
				return
			}
		}
	}

	last := charlie.LED(0xFF) // force an initial line
	for running {
		advance(1)
		b.Step()
		if mask := b.Lights.Mask(); mask != last {
			fmt.Printf("[%6dms] leds=%08b game=%d awake=%dms\n",
				now, mask, b.Game.Count(), b.Scanner.AwakeMS())
			last = mask
		}
	}
	fmt.Printf("[%6dms] script %q done\n", now, sc.Name)
}
