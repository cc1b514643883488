// Package config holds runtime settings read from GRADUALLY_* environment
// variables. CLI flags are layered on top by the commands that need them.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/julianstephens/gradually/internal/adjuster"
	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/scheduler"
)

// Prefix is the environment variable prefix
const Prefix = "GRADUALLY"

type Config struct {
	LookbackDays      int           `envconfig:"LOOKBACK_DAYS" default:"7"`
	StepMinutes       int           `envconfig:"STEP_MINUTES" default:"5"`
	DayStart          string        `envconfig:"DAY_START" default:"00:00"`
	RunnerSpec        string        `envconfig:"RUNNER_SPEC" default:"*/15 * * * *"`
	RunnerConcurrency int           `envconfig:"RUNNER_CONCURRENCY" default:"4"`
	SuggestionTimeout time.Duration `envconfig:"SUGGESTION_TIMEOUT" default:"30s"`
	ListenAddr        string        `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel          string        `envconfig:"LOG_LEVEL"`
	LogJSON           bool          `envconfig:"LOG_JSON"`
}

// Default returns the built-in settings without reading the environment.
func Default() Config {
	return Config{
		LookbackDays:      constants.DefaultLookbackDays,
		StepMinutes:       constants.DefaultStepMinutes,
		DayStart:          constants.DefaultDayStart,
		RunnerSpec:        constants.DefaultRunnerSpec,
		RunnerConcurrency: constants.DefaultRunnerConcurrency,
		SuggestionTimeout: constants.DefaultSuggestionTimeout,
		ListenAddr:        constants.DefaultListenAddr,
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read %s_* environment: %w", Prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.LookbackDays < 0 {
		return fmt.Errorf("%s_LOOKBACK_DAYS must not be negative, got %d", Prefix, c.LookbackDays)
	}
	if c.StepMinutes <= 0 {
		return fmt.Errorf("%s_STEP_MINUTES must be positive, got %d", Prefix, c.StepMinutes)
	}
	if c.RunnerConcurrency <= 0 {
		return fmt.Errorf("%s_RUNNER_CONCURRENCY must be positive, got %d", Prefix, c.RunnerConcurrency)
	}
	if c.SuggestionTimeout < 0 {
		return fmt.Errorf("%s_SUGGESTION_TIMEOUT must not be negative, got %s", Prefix, c.SuggestionTimeout)
	}
	if _, err := c.Adjuster(); err != nil {
		return fmt.Errorf("%s_DAY_START: %w", Prefix, err)
	}
	return nil
}

// Adjuster builds the adjuster described by StepMinutes and DayStart.
func (c Config) Adjuster() (*adjuster.Adjuster, error) {
	return adjuster.WithDayStart(c.StepMinutes, c.DayStart)
}

// GeneratorOptions returns the scheduler options for this configuration.
func (c Config) GeneratorOptions() ([]scheduler.Option, error) {
	adj, err := c.Adjuster()
	if err != nil {
		return nil, err
	}
	return []scheduler.Option{
		scheduler.WithAdjuster(adj),
		scheduler.WithLookbackDays(c.LookbackDays),
	}, nil
}

// Usage prints the recognized environment variables to stdout.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
