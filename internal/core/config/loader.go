package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"frontier/internal/engine/graph"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a usable config without a file on disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Filter.Statuses) == 0 {
		cfg.Filter.Statuses = []string{"new", "changed"}
	}
	if cfg.Filter.MaxTransitiveDistance == 0 {
		cfg.Filter.MaxTransitiveDistance = 2
	}
	// User-adjustable filter values clamp instead of failing load.
	if cfg.Filter.MaxTransitiveDistance < 0 {
		cfg.Filter.MaxTransitiveDistance = 0
	}
	if cfg.Filter.MaxTransitiveDistance > graph.MaxTransitiveDistanceCap {
		cfg.Filter.MaxTransitiveDistance = graph.MaxTransitiveDistanceCap
	}
	if cfg.Filter.MinFunctionSize < 0 {
		cfg.Filter.MinFunctionSize = 0
	}
	if cfg.Filter.MinTotalNewBB < 0 {
		cfg.Filter.MinTotalNewBB = 0
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.ReloadRate <= 0 {
		cfg.Watch.ReloadRate = 1
	}
	if cfg.Watch.ReloadBurst <= 0 {
		cfg.Watch.ReloadBurst = 2
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".frontier/history.db"
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	for _, s := range cfg.Filter.Statuses {
		switch s {
		case "new", "changed", "old":
		default:
			return fmt.Errorf("unknown filter status %q", s)
		}
	}
	if cfg.Dataset.MasterDB != "" && cfg.Dataset.CoverageDB == "" {
		return fmt.Errorf("dataset.master_db requires dataset.coverage_db")
	}
	if cfg.Dataset.CoverageDB != "" && cfg.Dataset.MasterDB == "" {
		return fmt.Errorf("dataset.coverage_db requires dataset.master_db")
	}
	return nil
}

// Filters converts the config's filter section to engine options.
func (c *Config) Filters() graph.FilterOptions {
	opts := graph.FilterOptions{
		IncludeOld:            c.Filter.IncludeOld,
		MinFunctionSize:       c.Filter.MinFunctionSize,
		MinTotalNewBB:         c.Filter.MinTotalNewBB,
		MaxTransitiveDistance: c.Filter.MaxTransitiveDistance,
		IncludeUnconnected:    c.Filter.IncludeUnconnected,
		NamePattern:           c.Filter.NamePattern,
	}
	for _, s := range c.Filter.Statuses {
		opts.Statuses = append(opts.Statuses, statusOf(s))
	}
	return opts
}
