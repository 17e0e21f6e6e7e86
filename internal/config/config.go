package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Timing names every tunable interval in the firmware. Observed badge
// variants disagree on the gesture thresholds and windows, so they are
// configuration here rather than baked-in constants.
type Timing struct {
	TickUS        int    `yaml:"tick_us"`         // multiplex tick period; 8 ticks ~ 1 ms
	BaseDelayMS   uint32 `yaml:"base_delay_ms"`   // flash march starting delay
	FloorDelayMS  uint32 `yaml:"floor_delay_ms"`  // flash march minimum delay
	BlinkBaseMS   uint32 `yaml:"blink_base_ms"`   // all-four blink starting delay
	BlinkFloorMS  uint32 `yaml:"blink_floor_ms"`  // all-four blink minimum delay
	DebounceMS    uint32 `yaml:"debounce_ms"`     // button guard interval
	QuickWindowMS uint64 `yaml:"quick_window_ms"` // max gap between chained right presses
	GestureCount  int    `yaml:"gesture_count"`   // quick presses that enter game mode
	DecayPeriodMS uint32 `yaml:"decay_period_ms"` // game lit-count decay period
	WinBlinks     int    `yaml:"win_blinks"`      // full-board blinks on a game win
	WinBlinkMS    int    `yaml:"win_blink_ms"`    // half-period of one win blink
	SettleMS      int    `yaml:"settle_ms"`       // post-blank settle before sleep
	ShutdownMS    uint32 `yaml:"shutdown_ms"`     // sleep abort window
	CeilingMS     uint64 `yaml:"ceiling_ms"`      // hard awake-time cutoff
}

type GPIO struct {
	Pins    [4]string `yaml:"pins"`    // shared LED bus lines, A..D
	Buttons [2]string `yaml:"buttons"` // left, right
}

type Config struct {
	Driver string `yaml:"driver"` // "sim" | "gpio"
	Addr   string `yaml:"addr"`   // simulator HTTP listen address
	FPS    int    `yaml:"fps"`    // simulator frame broadcast rate

	Timing Timing `yaml:"timing"`
	GPIO   GPIO   `yaml:"gpio,omitempty"`
}

// DefaultTiming matches the most common badge variant.
func DefaultTiming() Timing {
	return Timing{
		TickUS:        125,
		BaseDelayMS:   1000,
		FloorDelayMS:  50,
		BlinkBaseMS:   400,
		BlinkFloorMS:  30,
		DebounceMS:    10,
		QuickWindowMS: 500,
		GestureCount:  4,
		DecayPeriodMS: 160,
		WinBlinks:     10,
		WinBlinkMS:    50,
		SettleMS:      10,
		ShutdownMS:    500,
		CeilingMS:     60 * 1000,
	}
}

func Default() *Config {
	return &Config{
		Driver: "sim",
		Addr:   ":8080",
		FPS:    30,
		Timing: DefaultTiming(),
		GPIO: GPIO{
			Pins:    [4]string{"GPIO17", "GPIO27", "GPIO22", "GPIO23"},
			Buttons: [2]string{"GPIO5", "GPIO6"},
		},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	// A file written without a timing block unmarshals to all zeros;
	// zero intervals would wedge every state machine.
	if c.Timing == (Timing{}) {
		c.Timing = DefaultTiming()
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
