package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-charliebadge/internal/badge"
	"github.com/coreman2200/funtimes-charliebadge/internal/config"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/gpio"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
	"github.com/coreman2200/funtimes-charliebadge/internal/ws"
)

func main() {
	var (
		driver     = flag.String("driver", "", "driver: sim | gpio (overrides config)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		fps        = flag.Int("fps", 0, "frame broadcast rate (overrides config)")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
	} else {
		cfg = c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}

	// The sim board always exists: it is the ws control surface. With
	// -driver gpio the badge itself runs on real pins instead.
	board := sim.New()
	var hw hal.Board = board

	switch cfg.Driver {
	case "sim", "":
	case "gpio":
		g, err := gpio.Open(cfg.GPIO.Pins, cfg.GPIO.Buttons)
		if err != nil {
			log.Warn().Err(err).Msg("gpio init failed; falling back to sim")
		} else {
			hw = g
			defer g.Close()
		}
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using sim")
	}

	b := badge.New(hw, cfg.Timing)
	state := ws.NewState(b, board, cfg.FPS)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	go state.RunBroadcastLoop()
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
}
