package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"frontier/internal/engine/dataset"
	"frontier/internal/engine/graph"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frontier.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
version = 1

[dataset]
path = "viz_data.json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Dataset.Path != "viz_data.json" {
		t.Errorf("dataset path not read: %q", cfg.Dataset.Path)
	}
	if got := cfg.Filter.Statuses; len(got) != 2 || got[0] != "new" || got[1] != "changed" {
		t.Errorf("default statuses wrong: %v", got)
	}
	if cfg.Filter.MaxTransitiveDistance != 2 {
		t.Errorf("default distance wrong: %d", cfg.Filter.MaxTransitiveDistance)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("default debounce wrong: %v", cfg.Watch.Debounce)
	}
	if cfg.History.Path != ".frontier/history.db" {
		t.Errorf("default history path wrong: %q", cfg.History.Path)
	}
}

func TestLoadDurationString(t *testing.T) {
	path := writeConfig(t, `
version = 1

[watch]
enabled = true
debounce = "1s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
}

func TestLoadClampsDistance(t *testing.T) {
	path := writeConfig(t, `
version = 1

[filter]
max_transitive_distance = 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Filter.MaxTransitiveDistance != graph.MaxTransitiveDistanceCap {
		t.Errorf("distance must clamp to cap, got %d", cfg.Filter.MaxTransitiveDistance)
	}
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	path := writeConfig(t, `
version = 1

[filter]
statuses = ["new", "shiny"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLoadRejectsUnpairedSQLiteSource(t *testing.T) {
	path := writeConfig(t, `
version = 1

[dataset]
master_db = "master.db"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for master_db without coverage_db")
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	path := writeConfig(t, `version = 3`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestFiltersConversion(t *testing.T) {
	cfg := Default()
	cfg.Filter.Statuses = []string{"new", "old"}
	cfg.Filter.IncludeOld = true
	cfg.Filter.MinFunctionSize = 10
	cfg.Filter.NamePattern = "crypto_*"

	opts := cfg.Filters()
	if len(opts.Statuses) != 2 || opts.Statuses[0] != dataset.StatusNew || opts.Statuses[1] != dataset.StatusOld {
		t.Errorf("status conversion wrong: %v", opts.Statuses)
	}
	if !opts.IncludeOld || opts.MinFunctionSize != 10 || opts.NamePattern != "crypto_*" {
		t.Errorf("filter fields not carried: %+v", opts)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}
