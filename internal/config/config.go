// Package config loads the worldsim run configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full run configuration.
type Config struct {
	Sim         Sim         `yaml:"sim"`
	Log         Log         `yaml:"log"`
	Weather     Weather     `yaml:"weather"`
	Economy     Economy     `yaml:"economy"`
	Persistence Persistence `yaml:"persistence"`
	Metrics     Metrics     `yaml:"metrics"`
	Scenario    Scenario    `yaml:"scenario"`
}

// Sim controls the clock and pacing.
type Sim struct {
	Seed  int64         `yaml:"seed"`
	Start time.Time     `yaml:"start"`
	Step  time.Duration `yaml:"step"`

	// TickInterval is the wall time between ticks; zero runs flat out.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Ticks stops the run after this many ticks; zero runs until signalled.
	Ticks uint64 `yaml:"ticks"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json or auto
}

type Weather struct {
	Amplitude float64 `yaml:"amplitude"`
}

type Economy struct {
	HouseholdAllowance bool    `yaml:"household_allowance"`
	PassionWageWeight  float64 `yaml:"passion_wage_weight"`
}

type Persistence struct {
	DBPath string `yaml:"db_path"`

	// AutosaveEvery is the number of simulated days between snapshots.
	AutosaveEvery int `yaml:"autosave_every"`
	Keep          int `yaml:"keep"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

type Scenario struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Sim: Sim{
			Seed:         42,
			Start:        time.Date(1200, time.March, 1, 6, 0, 0, 0, time.UTC),
			Step:         time.Hour,
			TickInterval: 100 * time.Millisecond,
		},
		Log: Log{Level: "info", Format: "auto"},
		Economy: Economy{
			HouseholdAllowance: true,
		},
		Persistence: Persistence{
			DBPath:        "data/worldsim.db",
			AutosaveEvery: 7,
			Keep:          10,
		},
		Metrics: Metrics{Addr: ":9090"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WORLDSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: WORLDSIM_SEED %q: %v", ErrInvalid, v, err)
		}
		c.Sim.Seed = seed
	}
	if v := os.Getenv("WORLDSIM_DB"); v != "" {
		c.Persistence.DBPath = v
	}
	if v := os.Getenv("WORLDSIM_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every problem found, each wrapped in ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Sim.Step <= 0 {
		bad("sim.step must be positive, got %s", c.Sim.Step)
	}
	if c.Sim.TickInterval < 0 {
		bad("sim.tick_interval must not be negative, got %s", c.Sim.TickInterval)
	}
	if c.Sim.Start.IsZero() {
		bad("sim.start is required")
	}
	if c.Weather.Amplitude < 0 || c.Weather.Amplitude > 1 {
		bad("weather.amplitude must be in [0,1], got %g", c.Weather.Amplitude)
	}
	if c.Economy.PassionWageWeight < 0 {
		bad("economy.passion_wage_weight must not be negative, got %g", c.Economy.PassionWageWeight)
	}
	if c.Persistence.AutosaveEvery < 0 {
		bad("persistence.autosave_every must not be negative, got %d", c.Persistence.AutosaveEvery)
	}
	if c.Persistence.Keep < 0 {
		bad("persistence.keep must not be negative, got %d", c.Persistence.Keep)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		bad("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "text", "json":
	default:
		bad("log.format must be auto, text or json, got %q", c.Log.Format)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}
