package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Hour, cfg.Sim.Step)
	assert.True(t, cfg.Economy.HouseholdAllowance)
	assert.Zero(t, cfg.Economy.PassionWageWeight)
	assert.Zero(t, cfg.Weather.Amplitude)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Sim.Start, cfg.Sim.Start)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldsim.yaml")
	body := `
sim:
  seed: 7
  step: 2h
  tick_interval: 0s
  ticks: 48
log:
  level: debug
  format: json
weather:
  amplitude: 0.3
economy:
  household_allowance: false
persistence:
  db_path: /tmp/other.db
scenario:
  path: configs/eldermere.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Sim.Seed)
	assert.Equal(t, 2*time.Hour, cfg.Sim.Step)
	assert.Zero(t, cfg.Sim.TickInterval)
	assert.Equal(t, uint64(48), cfg.Sim.Ticks)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.InDelta(t, 0.3, cfg.Weather.Amplitude, 1e-9)
	assert.False(t, cfg.Economy.HouseholdAllowance)
	assert.Equal(t, "/tmp/other.db", cfg.Persistence.DBPath)
	assert.Equal(t, 7, cfg.Persistence.AutosaveEvery)
	assert.Equal(t, "configs/eldermere.yaml", cfg.Scenario.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORLDSIM_SEED", "99")
	t.Setenv("WORLDSIM_DB", "env.db")
	t.Setenv("WORLDSIM_METRICS_ADDR", "127.0.0.1:0")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Sim.Seed)
	assert.Equal(t, "env.db", cfg.Persistence.DBPath)
	assert.Equal(t, "127.0.0.1:0", cfg.Metrics.Addr)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestBadSeedEnv(t *testing.T) {
	t.Setenv("WORLDSIM_SEED", "forty-two")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Sim.Step = 0
	cfg.Weather.Amplitude = 2
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"sim.step", "weather.amplitude", "log.level", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
