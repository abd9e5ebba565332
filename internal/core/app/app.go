package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"frontier/internal/core/config"
	"frontier/internal/data/history"
	"frontier/internal/engine/dataset"
	"frontier/internal/engine/graph"
	"frontier/internal/engine/selection"
	"frontier/internal/shared/observability"
)

// graphCacheSize bounds how many built graphs stay resident. One entry per
// (module, filter signature) pair; filter churn in the UI hits this a lot.
const graphCacheSize = 32

// Analysis is one published engine state: a built graph for a module under a
// filter configuration, plus the current selection. It is immutable; every
// transition publishes a new value.
type Analysis struct {
	ID         string
	Generation uint64
	ModuleID   int
	Filters    graph.FilterOptions
	Graph      *graph.Graph
	Selection  selection.Selection
	CreatedAt  time.Time
}

// App owns the loaded dataset and the derived analysis state. All mutation
// goes through its methods; readers get snapshots.
type App struct {
	Config *config.Config

	mu         sync.RWMutex
	ds         *dataset.Dataset
	source     string
	generation uint64
	loadID     string
	analysis   *Analysis

	cache   *lru.Cache[string, *graph.Graph]
	history *history.Store

	// onReload runs after a watcher-triggered reload has published the new
	// state. Guarded by mu; the watcher goroutine reads it concurrently with
	// SetOnReload callers.
	onReload func(*Analysis)

	watchStop func()
}

// SetOnReload installs the callback fired after a watcher-triggered reload.
// Safe to call while a watch is already running; nil uninstalls.
func (a *App) SetOnReload(fn func(*Analysis)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReload = fn
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	cache, err := lru.New[string, *graph.Graph](graphCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create graph cache: %w", err)
	}

	a := &App{
		Config: cfg,
		cache:  cache,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.history = store
	}

	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.watchStop != nil {
		a.watchStop()
		a.watchStop = nil
	}
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// Dataset returns the current dataset snapshot. Nil before the first load.
func (a *App) Dataset() *dataset.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ds
}

// Current returns the latest published analysis, or nil if none was applied.
func (a *App) Current() *Analysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.analysis
}

// Generation returns the dataset generation counter. It increments on every
// load; analyses from older generations are superseded.
func (a *App) Generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}

func (a *App) History() *history.Store {
	return a.history
}

// Health implements the observability server's health probe.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := observability.HealthStatus{Status: "up"}
	if a.ds != nil {
		status.DatasetLoaded = true
		status.Modules = len(a.ds.Modules)
		status.Functions = a.ds.FunctionCount()
	}
	return status
}

func cacheKey(moduleID int, opts graph.FilterOptions) string {
	return fmt.Sprintf("%d|%s", moduleID, opts.Signature())
}
