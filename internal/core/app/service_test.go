package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontier/internal/core/config"
	"frontier/internal/core/errors"
	"frontier/internal/engine/dataset"
	"frontier/internal/engine/selection"
)

const serviceFixture = `{
  "version": "1.0",
  "modules": [
    {
      "binary_id": 1,
      "module_name": "target.dll",
      "status": "changed",
      "functions": [
        {"func_id": 1, "func_name": "root_fn", "entry_rva": "0x1000", "func_size": 64, "status": "new",
         "attribution": {"unique_new_bb": 5, "shared_new_bb": 5, "total_new_bb": 10, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x1000", "bb_size": 16, "status": "new"}]},
        {"func_id": 2, "func_name": "leaf_fn", "entry_rva": "0x2000", "func_size": 32, "status": "new",
         "attribution": {"unique_new_bb": 3, "shared_new_bb": 3, "total_new_bb": 6, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x2000", "bb_size": 16, "status": "new"}]}
      ],
      "edges": [
        {"src_bb_rva": "0x1000", "dst_bb_rva": "0x2000", "edge_type": "call_direct"}
      ]
    }
  ]
}`

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "viz_data.json")
	require.NoError(t, os.WriteFile(datasetPath, []byte(serviceFixture), 0o644))

	cfg := config.Default()
	cfg.Dataset.Path = datasetPath
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")

	a, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, datasetPath
}

func TestLoadApplySelect(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.LoadDataset(ctx, path))
	require.NotNil(t, a.Dataset())
	assert.EqualValues(t, 1, a.Generation())

	health := a.Health(ctx)
	assert.True(t, health.DatasetLoaded)
	assert.Equal(t, 1, health.Modules)
	assert.Equal(t, 2, health.Functions)

	analysis, err := a.Apply(ctx, 1, a.Config.Filters())
	require.NoError(t, err)
	require.NotNil(t, analysis.Graph)
	assert.Len(t, analysis.Graph.Nodes, 2)
	assert.Len(t, analysis.Graph.Edges, 1)
	assert.NotEmpty(t, analysis.ID)

	gid := dataset.FunctionID{Module: 1, Func: 1}
	withFn, err := a.SelectFunction(gid)
	require.NoError(t, err)
	require.NotNil(t, withFn.Selection.Function)
	assert.Equal(t, gid, *withFn.Selection.Function)
	assert.True(t, withFn.Selection.HasFocus())

	view := a.View()
	require.NotNil(t, view)
	for _, n := range view.Nodes {
		// root_fn reaches leaf_fn, so nothing is dimmed here.
		assert.False(t, n.Dimmed, "node %s should be in focus", n.ID)
	}

	withBlock, err := a.SelectBlock(selection.BlockRef{Function: gid, RVA: 0x1000})
	require.NoError(t, err)
	require.NotNil(t, withBlock.Selection.Block)
	assert.Equal(t, gid, *withBlock.Selection.Function, "block selection keeps function")

	cleared, err := a.ClearSelection()
	require.NoError(t, err)
	assert.Nil(t, cleared.Selection.Function)
	assert.Nil(t, cleared.Selection.Block)
}

func TestApplyCachesGraphs(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.LoadDataset(ctx, path))

	opts := a.Config.Filters()
	first, err := a.Apply(ctx, 1, opts)
	require.NoError(t, err)
	second, err := a.Apply(ctx, 1, opts)
	require.NoError(t, err)

	assert.Same(t, first.Graph, second.Graph, "identical filters must hit the graph cache")
	assert.NotEqual(t, first.ID, second.ID, "each apply publishes a fresh analysis")
}

func TestReloadDropsDerivedState(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.LoadDataset(ctx, path))

	first, err := a.Apply(ctx, 1, a.Config.Filters())
	require.NoError(t, err)

	require.NoError(t, a.LoadDataset(ctx, path))
	assert.EqualValues(t, 2, a.Generation())
	assert.Nil(t, a.Current(), "reload must clear the published analysis")

	second, err := a.Apply(ctx, 1, a.Config.Filters())
	require.NoError(t, err)
	assert.NotSame(t, first.Graph, second.Graph, "cache must be purged on reload")
	assert.Greater(t, second.Generation, first.Generation)
}

func TestApplyUnknownModule(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.LoadDataset(ctx, path))

	_, err := a.Apply(ctx, 42, a.Config.Filters())
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)
}

func TestSelectValidation(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()

	_, err := a.SelectModule(1)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError), "selection before load: %v", err)

	require.NoError(t, a.LoadDataset(ctx, path))
	_, err = a.Apply(ctx, 1, a.Config.Filters())
	require.NoError(t, err)

	_, err = a.SelectFunction(dataset.FunctionID{Module: 1, Func: 99})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)

	_, err = a.SelectBlock(selection.BlockRef{Function: dataset.FunctionID{Module: 1, Func: 1}, RVA: 0xdead})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)
}

func TestLoadErrors(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()

	err := a.LoadDataset(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound), "got %v", err)

	// A malformed dataset must not clobber previously loaded state.
	require.NoError(t, a.LoadDataset(ctx, path))
	gen := a.Generation()

	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"version": "1.0"}`), 0o644))
	err = a.LoadDataset(ctx, badPath)
	assert.True(t, errors.IsCode(err, errors.CodeMalformedDataset), "got %v", err)
	assert.Equal(t, gen, a.Generation(), "failed load must not bump the generation")
	assert.NotNil(t, a.Dataset())
}

func TestHistoryRecordsLoadsAndBuilds(t *testing.T) {
	a, path := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.LoadDataset(ctx, path))
	_, err := a.Apply(ctx, 1, a.Config.Filters())
	require.NoError(t, err)

	recent, err := a.History().RecentLoads(5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, path, recent[0].Source)
	assert.Equal(t, 1, recent[0].ModuleCount)
	assert.Equal(t, 2, recent[0].FunctionCount)
}
