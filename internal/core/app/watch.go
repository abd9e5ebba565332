package app

import (
	"context"
	"log/slog"

	"frontier/internal/core/errors"
	"frontier/internal/core/watcher"
	"frontier/internal/shared/observability"
	"frontier/internal/shared/util"
)

// StartWatch watches the configured dataset source and reloads on change.
// Reloads are debounced by the watcher and additionally rate limited so a
// misbehaving exporter cannot make the engine thrash.
func (a *App) StartWatch(ctx context.Context) error {
	paths := a.watchTargets()
	if len(paths) == 0 {
		return errors.New(errors.CodeValidationError, "watch enabled but no dataset source configured")
	}

	limiter := util.NewLimiter(a.Config.Watch.ReloadRate, a.Config.Watch.ReloadBurst)

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, func(changed []string) {
		if !limiter.Allow(1) {
			slog.Debug("reload suppressed by rate limit", "changed", changed)
			return
		}
		a.reload(ctx, changed)
	})
	if err != nil {
		return err
	}
	if err := w.Watch(paths); err != nil {
		_ = w.Close()
		return err
	}

	a.watchStop = func() { _ = w.Close() }
	slog.Info("watching dataset source", "paths", paths)
	return nil
}

func (a *App) watchTargets() []string {
	ds := a.Config.Dataset
	if ds.MasterDB != "" && ds.CoverageDB != "" {
		return []string{ds.MasterDB, ds.CoverageDB}
	}
	if ds.Path != "" {
		return []string{ds.Path}
	}
	return nil
}

// reload re-runs the configured load and, if an analysis was live, re-applies
// the same module and filters against the fresh dataset. The selection does
// not survive a reload; its targets may no longer exist.
func (a *App) reload(ctx context.Context, changed []string) {
	slog.Info("dataset changed, reloading", "changed", changed)
	observability.ReloadsTotal.Inc()

	prev := a.Current()

	ds := a.Config.Dataset
	var err error
	if ds.MasterDB != "" && ds.CoverageDB != "" {
		err = a.LoadFromCovDB(ctx, ds.MasterDB, ds.CoverageDB)
	} else {
		err = a.LoadDataset(ctx, ds.Path)
	}
	if err != nil {
		slog.Error("reload failed, keeping previous dataset state", "error", err)
		return
	}

	var analysis *Analysis
	if prev != nil {
		analysis, err = a.Apply(ctx, prev.ModuleID, prev.Filters)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				slog.Warn("previous module missing after reload", "module", prev.ModuleID)
			} else if !errors.IsCode(err, errors.CodeSuperseded) {
				slog.Error("re-apply after reload failed", "error", err)
			}
		}
	}

	a.mu.RLock()
	onReload := a.onReload
	a.mu.RUnlock()
	if onReload != nil {
		onReload(analysis)
	}
}
