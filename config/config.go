// Package config loads runtime settings for the goapcore binaries from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/goapcore/engine/planner"
)

// Config holds every runtime setting. Domain files may override the
// planner section; command-line flags override everything.
type Config struct {
	Planner PlannerConfig `yaml:"planner"`
	Sim     SimConfig     `yaml:"sim"`
	Log     LogConfig     `yaml:"log"`
	SaveDir string        `yaml:"save_dir"`
}

// PlannerConfig selects the planner and its search bounds.
type PlannerConfig struct {
	Kind      string `yaml:"kind"`
	MaxDepth  int    `yaml:"max_depth"`
	Heuristic string `yaml:"heuristic"`
}

// SimConfig tunes the simulated world.
type SimConfig struct {
	Seed         int64         `yaml:"seed"`
	FailureRate  float64       `yaml:"failure_rate"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Planner: PlannerConfig{
			Kind:      planner.KindRegressive,
			MaxDepth:  8,
			Heuristic: planner.HeuristicUnsatisfied,
		},
		Sim: SimConfig{
			Seed:         1,
			TickInterval: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SaveDir: ".",
	}
}

// Load reads path over the defaults. A missing file is not an error and
// yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if err := c.PlannerSettings().Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if c.Sim.FailureRate < 0 || c.Sim.FailureRate > 1 {
		return fmt.Errorf("sim.failure_rate must be within [0, 1], got %g", c.Sim.FailureRate)
	}
	if c.Sim.TickInterval <= 0 {
		return fmt.Errorf("sim.tick_interval must be positive, got %s", c.Sim.TickInterval)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// PlannerSettings converts the planner section for planner.New.
func (c Config) PlannerSettings() planner.Config {
	return planner.Config{
		Kind:      c.Planner.Kind,
		MaxDepth:  c.Planner.MaxDepth,
		Heuristic: c.Planner.Heuristic,
	}
}
