package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
	"github.com/coreman2200/funtimes-charliebadge/internal/script"
)

const sample = `
name: quick taps
duration_ms: 100
events:
  - {at_ms: 10, button: right, action: press}
  - {at_ms: 30, button: right, action: release}
  - {at_ms: 50, button: left, action: press}
`

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAndReplay(t *testing.T) {
	s, err := script.Load(write(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "quick taps", s.Name)

	board := sim.New()
	r := script.NewRunner(s)

	for now := uint64(0); now < 9; now++ {
		assert.True(t, r.Step(now, board))
	}
	assert.False(t, board.Raw(hal.Right))

	r.Step(10, board)
	assert.True(t, board.Raw(hal.Right), "press due at 10ms not applied")
	r.Step(29, board)
	assert.True(t, board.Raw(hal.Right))
	r.Step(31, board)
	assert.False(t, board.Raw(hal.Right), "release due at 30ms not applied")

	r.Step(60, board)
	assert.True(t, board.Raw(hal.Left))
	assert.False(t, r.Step(100, board), "script must finish at its duration")
}

func TestLoadRejectsUnknownButton(t *testing.T) {
	_, err := script.Load(write(t, `
name: bad
duration_ms: 10
events:
  - {at_ms: 0, button: middle, action: press}
`))
	assert.Error(t, err)
}

func TestLoadRejectsOutOfOrderEvents(t *testing.T) {
	_, err := script.Load(write(t, `
name: bad
duration_ms: 10
events:
  - {at_ms: 5, button: left, action: press}
  - {at_ms: 1, button: left, action: release}
`))
	assert.Error(t, err)
}
