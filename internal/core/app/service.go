package app

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"frontier/internal/core/errors"
	"frontier/internal/data/covdb"
	"frontier/internal/data/history"
	"frontier/internal/engine/dataset"
	"frontier/internal/engine/graph"
	"frontier/internal/engine/selection"
	"frontier/internal/shared/observability"
)

// LoadDataset reads and normalizes the wire-format JSON dataset at path and
// publishes it as the new engine state. All derived state (analyses, cached
// graphs, selections) from the previous dataset is discarded.
func (a *App) LoadDataset(ctx context.Context, path string) error {
	ctx, span := observability.Tracer.Start(ctx, "app.LoadDataset",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "open dataset"),
			errors.CtxPath, path)
	}
	defer f.Close()

	root, err := dataset.Decode(f)
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}
	ds, err := dataset.Normalize(root)
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}

	observability.LoadDuration.WithLabelValues("json").Observe(time.Since(start).Seconds())
	a.commit(ctx, ds, path, start)
	return nil
}

// LoadFromCovDB builds the dataset directly from the analyzer's SQLite pair
// and publishes it, bypassing the JSON export.
func (a *App) LoadFromCovDB(ctx context.Context, masterPath, covPath string) error {
	ctx, span := observability.Tracer.Start(ctx, "app.LoadFromCovDB",
		trace.WithAttributes(
			attribute.String("master_db", masterPath),
			attribute.String("coverage_db", covPath)))
	defer span.End()

	start := time.Now()

	root, err := covdb.Read(masterPath, covPath)
	if err != nil {
		return err
	}
	ds, err := dataset.Normalize(root)
	if err != nil {
		return err
	}

	observability.LoadDuration.WithLabelValues("sqlite").Observe(time.Since(start).Seconds())
	a.commit(ctx, ds, covPath, start)
	return nil
}

// commit replaces the engine state wholesale: new dataset, bumped generation,
// cleared analysis, purged graph cache. Loads never merge into prior state.
func (a *App) commit(ctx context.Context, ds *dataset.Dataset, source string, start time.Time) {
	a.mu.Lock()
	a.ds = ds
	a.source = source
	a.generation++
	a.analysis = nil
	a.loadID = ""
	a.cache.Purge()
	a.mu.Unlock()

	observability.DatasetModules.Set(float64(len(ds.Modules)))
	observability.DatasetFunctions.Set(float64(ds.FunctionCount()))
	if ds.OrphanEdges > 0 {
		observability.OrphanEdgesTotal.Add(float64(ds.OrphanEdges))
	}

	if a.history != nil {
		id, err := a.history.SaveLoad(history.LoadRecord{
			Source:        source,
			ModuleCount:   len(ds.Modules),
			FunctionCount: ds.FunctionCount(),
			BlockCount:    ds.BlockCount(),
			OrphanEdges:   ds.OrphanEdges,
			DurationMS:    time.Since(start).Milliseconds(),
		})
		if err != nil {
			observability.HistoryWriteFailures.Inc()
		} else {
			a.mu.Lock()
			a.loadID = id
			a.mu.Unlock()
		}
	}
}

// Apply builds (or fetches from cache) the reachability graph for moduleID
// under the given filters and publishes it as the current analysis. If the
// dataset is replaced while the build runs, the result is discarded and
// SUPERSEDED is returned; the caller re-applies against the new dataset.
func (a *App) Apply(ctx context.Context, moduleID int, opts graph.FilterOptions) (*Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Apply",
		trace.WithAttributes(attribute.Int("module_id", moduleID)))
	defer span.End()

	a.mu.RLock()
	ds := a.ds
	gen := a.generation
	loadID := a.loadID
	a.mu.RUnlock()

	if ds == nil {
		return nil, errors.New(errors.CodeValidationError, "no dataset loaded")
	}
	mod, ok := ds.Module(moduleID)
	if !ok {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "module %d not in dataset", moduleID),
			errors.CtxModule, moduleID)
	}

	start := time.Now()
	key := cacheKey(moduleID, opts)

	g, cached := a.cache.Get(key)
	if cached {
		observability.GraphCacheHitsTotal.Inc()
	} else {
		built, err := graph.Build(mod, opts)
		if err != nil {
			return nil, err
		}
		g = built
	}

	a.mu.Lock()
	if a.generation != gen {
		a.mu.Unlock()
		return nil, errors.New(errors.CodeSuperseded, "dataset replaced during graph build")
	}
	if !cached {
		a.cache.Add(key, g)
	}
	analysis := &Analysis{
		ID:         uuid.NewString(),
		Generation: gen,
		ModuleID:   moduleID,
		Filters:    opts,
		Graph:      g,
		Selection:  selection.None(),
		CreatedAt:  time.Now().UTC(),
	}
	a.analysis = analysis
	a.mu.Unlock()

	if a.history != nil && loadID != "" {
		if _, err := a.history.SaveBuild(history.BuildRecord{
			LoadID:          loadID,
			ModuleID:        moduleID,
			FilterSignature: opts.Signature(),
			NodeCount:       len(g.Nodes),
			EdgeCount:       len(g.Edges),
			DurationMS:      time.Since(start).Milliseconds(),
		}); err != nil {
			observability.HistoryWriteFailures.Inc()
		}
	}

	return analysis, nil
}

// SelectModule selects a module, dropping any function and block selection.
func (a *App) SelectModule(id int) (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ds == nil || a.analysis == nil {
		return nil, errors.New(errors.CodeValidationError, "no analysis to select in")
	}
	if _, ok := a.ds.Module(id); !ok {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "module %d not in dataset", id),
			errors.CtxModule, id)
	}
	return a.publishSelection(a.analysis.Selection.WithModule(id)), nil
}

// SelectFunction selects a function, clearing any block selection and
// focusing the graph on the function's forward reachability.
func (a *App) SelectFunction(gid dataset.FunctionID) (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ds == nil || a.analysis == nil {
		return nil, errors.New(errors.CodeValidationError, "no analysis to select in")
	}
	if _, ok := a.ds.FunctionByGID(gid); !ok {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "function %s not in dataset", gid),
			errors.CtxFunction, gid.String())
	}
	return a.publishSelection(a.analysis.Selection.WithFunction(gid, a.analysis.Graph)), nil
}

// SelectBlock selects a basic block. Module and function selections and the
// focus set are left as they are.
func (a *App) SelectBlock(ref selection.BlockRef) (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ds == nil || a.analysis == nil {
		return nil, errors.New(errors.CodeValidationError, "no analysis to select in")
	}
	fn, ok := a.ds.FunctionByGID(ref.Function)
	if !ok {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "function %s not in dataset", ref.Function),
			errors.CtxFunction, ref.Function.String())
	}
	found := false
	for _, b := range fn.Blocks {
		if b.RVA == ref.RVA {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeNotFound, "block %#x not in function %s", ref.RVA, ref.Function),
			errors.CtxBlock, ref.RVA)
	}
	return a.publishSelection(a.analysis.Selection.WithBlock(ref)), nil
}

// ClearFunctionSelection drops the function and block selection but keeps the
// module selection.
func (a *App) ClearFunctionSelection() (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.analysis == nil {
		return nil, errors.New(errors.CodeValidationError, "no analysis to select in")
	}
	return a.publishSelection(a.analysis.Selection.ClearFunction()), nil
}

// ClearSelection resets the selection hierarchy entirely.
func (a *App) ClearSelection() (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.analysis == nil {
		return nil, errors.New(errors.CodeValidationError, "no analysis to select in")
	}
	return a.publishSelection(a.analysis.Selection.Clear()), nil
}

// publishSelection copies the current analysis with the new selection.
// Callers hold a.mu.
func (a *App) publishSelection(next selection.Selection) *Analysis {
	copied := *a.analysis
	copied.Selection = next
	a.analysis = &copied
	return a.analysis
}

// View returns the current graph with focus dimming applied, ready for
// rendering or export. Nil when nothing has been applied yet.
func (a *App) View() *graph.Graph {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.analysis == nil {
		return nil
	}
	return a.analysis.Selection.Dim(a.analysis.Graph)
}
