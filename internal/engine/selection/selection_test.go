package selection

import (
	"strings"
	"testing"

	"frontier/internal/engine/dataset"
	"frontier/internal/engine/graph"
)

// A -> B -> C with an isolated X; focus on B must light {B, C} only.
const focusFixture = `{
  "version": "1.0",
  "modules": [
    {
      "binary_id": 1,
      "module_name": "m",
      "status": "changed",
      "functions": [
        {"func_id": 1, "func_name": "a", "entry_rva": "0x1000", "func_size": 16, "status": "new",
         "attribution": {"unique_new_bb": 5, "shared_new_bb": 0, "total_new_bb": 10, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x1000", "bb_size": 16, "status": "new"}]},
        {"func_id": 2, "func_name": "b", "entry_rva": "0x2000", "func_size": 16, "status": "new",
         "attribution": {"unique_new_bb": 5, "shared_new_bb": 0, "total_new_bb": 8, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x2000", "bb_size": 16, "status": "new"}]},
        {"func_id": 3, "func_name": "c", "entry_rva": "0x3000", "func_size": 16, "status": "new",
         "attribution": {"unique_new_bb": 5, "shared_new_bb": 0, "total_new_bb": 6, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x3000", "bb_size": 16, "status": "new"}]},
        {"func_id": 4, "func_name": "x", "entry_rva": "0x4000", "func_size": 16, "status": "new",
         "attribution": {"unique_new_bb": 5, "shared_new_bb": 0, "total_new_bb": 5, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
         "blocks": [{"bb_rva": "0x4000", "bb_size": 16, "status": "new"}]}
      ],
      "edges": [
        {"src_bb_rva": "0x1000", "dst_bb_rva": "0x2000", "edge_type": "call_direct"},
        {"src_bb_rva": "0x2000", "dst_bb_rva": "0x3000", "edge_type": "call_direct"}
      ]
    }
  ]
}`

func fixtureGraph(t *testing.T) *graph.Graph {
	t.Helper()
	root, err := dataset.Decode(strings.NewReader(focusFixture))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ds, err := dataset.Normalize(root)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	m, _ := ds.Module(1)
	g, err := graph.Build(m, graph.FilterOptions{MaxTransitiveDistance: 2, IncludeUnconnected: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func gid(f int) dataset.FunctionID {
	return dataset.FunctionID{Module: 1, Func: f}
}

func TestWithModuleClearsDescendants(t *testing.T) {
	g := fixtureGraph(t)
	s := None().WithFunction(gid(2), g).WithBlock(BlockRef{Function: gid(2), RVA: 0x2000})

	next := s.WithModule(1)
	if next.Module == nil || *next.Module != 1 {
		t.Error("module selection missing")
	}
	if next.Function != nil || next.Block != nil {
		t.Error("selecting a module must clear function and block selections")
	}
	if next.HasFocus() {
		t.Error("selecting a module must drop the focus set")
	}
}

func TestWithFunctionFocusIsForwardOnly(t *testing.T) {
	g := fixtureGraph(t)

	s := None().WithFunction(gid(2), g)
	if s.Function == nil || *s.Function != gid(2) {
		t.Fatal("function selection missing")
	}
	if s.Module == nil || *s.Module != 1 {
		t.Error("module selection must be inferred from the function id")
	}

	want := map[dataset.FunctionID]bool{gid(2): true, gid(3): true}
	if len(s.Focus) != len(want) {
		t.Fatalf("focus = %v, want %v", s.Focus, want)
	}
	for id := range want {
		if !s.Focus[id] {
			t.Errorf("focus missing %s", id)
		}
	}
	// A calls B, but callers stay dark: the traversal follows out-edges only.
	if s.Focus[gid(1)] {
		t.Error("caller must not enter the focus set")
	}
}

func TestWithFunctionAbsentFromGraph(t *testing.T) {
	g := fixtureGraph(t)

	s := None().WithFunction(gid(99), g)
	if len(s.Focus) != 1 || !s.Focus[gid(99)] {
		t.Errorf("absent function focuses only itself, got %v", s.Focus)
	}

	s = None().WithFunction(gid(2), nil)
	if len(s.Focus) != 1 || !s.Focus[gid(2)] {
		t.Errorf("nil graph focuses only the selection, got %v", s.Focus)
	}
}

func TestWithBlockLeavesHierarchyUntouched(t *testing.T) {
	g := fixtureGraph(t)
	s := None().WithFunction(gid(2), g)
	focusBefore := len(s.Focus)

	next := s.WithBlock(BlockRef{Function: gid(2), RVA: 0x2000})
	if next.Block == nil || next.Block.RVA != 0x2000 {
		t.Error("block selection missing")
	}
	if next.Function == nil || *next.Function != gid(2) {
		t.Error("block selection must keep the function selection")
	}
	if len(next.Focus) != focusBefore {
		t.Error("block selection must not alter the focus set")
	}
}

func TestClearFunctionKeepsModule(t *testing.T) {
	g := fixtureGraph(t)
	s := None().WithModule(1).WithFunction(gid(2), g).WithBlock(BlockRef{Function: gid(2), RVA: 0x2000})

	next := s.ClearFunction()
	if next.Module == nil || *next.Module != 1 {
		t.Error("clearing the function must keep the module selection")
	}
	if next.Function != nil || next.Block != nil || next.HasFocus() {
		t.Error("clearing the function must drop function, block and focus")
	}
}

func TestDimFlagsOutsideFocus(t *testing.T) {
	g := fixtureGraph(t)
	s := None().WithFunction(gid(2), g)

	dimmed := s.Dim(g)

	for _, n := range dimmed.Nodes {
		wantDim := !s.Focus[n.ID]
		if n.Dimmed != wantDim {
			t.Errorf("node %s dimmed=%t, want %t", n.ID, n.Dimmed, wantDim)
		}
	}
	for _, e := range dimmed.Edges {
		wantDim := !s.Focus[e.Source] || !s.Focus[e.Target]
		if e.Dimmed != wantDim {
			t.Errorf("edge %s->%s dimmed=%t, want %t", e.Source, e.Target, e.Dimmed, wantDim)
		}
	}

	// The published graph is never mutated.
	for _, n := range g.Nodes {
		if n.Dimmed {
			t.Fatal("Dim must operate on a copy")
		}
	}
}

func TestDimWithoutFocusIsFullyLit(t *testing.T) {
	g := fixtureGraph(t)
	s := None().WithModule(1)

	dimmed := s.Dim(g)
	for _, n := range dimmed.Nodes {
		if n.Dimmed {
			t.Error("module-only selection must not dim anything")
		}
	}
}
