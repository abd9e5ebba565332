package selection

import (
	"frontier/internal/engine/dataset"
	"frontier/internal/engine/graph"
)

// BlockRef addresses one basic block through its owning function.
type BlockRef struct {
	Function dataset.FunctionID
	RVA      uint64
}

// Selection is an immutable snapshot of the module ⊇ function ⊇ block
// selection hierarchy plus the focus set derived from the current graph.
// Transitions are pure: each returns a new Selection, leaving the receiver
// untouched, so the containment invariant is testable in isolation.
type Selection struct {
	Module   *int
	Function *dataset.FunctionID
	Block    *BlockRef

	// Focus holds the selected function plus everything reachable from it
	// through outgoing edges. Nil means no focus (full visibility).
	Focus map[dataset.FunctionID]bool
}

func None() Selection {
	return Selection{}
}

// WithModule selects a module and clears the function and block selections
// along with the focus set.
func (s Selection) WithModule(id int) Selection {
	return Selection{Module: &id}
}

// WithFunction selects a function, clearing the block selection and
// recomputing the focus set from the graph's outgoing edges. The traversal
// is forward-only: only nodes the selected function can reach are kept lit.
func (s Selection) WithFunction(id dataset.FunctionID, g *graph.Graph) Selection {
	next := Selection{
		Module:   s.Module,
		Function: &id,
		Focus:    focusSet(id, g),
	}
	if next.Module == nil {
		m := id.Module
		next.Module = &m
	}
	return next
}

// WithBlock selects a block. Ancestors are implied by the block reference;
// the function/module selections and the focus set are left untouched.
func (s Selection) WithBlock(ref BlockRef) Selection {
	next := s
	next.Block = &ref
	return next
}

// ClearFunction drops the function (and block) selection and restores full
// visibility. Used for background deselects.
func (s Selection) ClearFunction() Selection {
	return Selection{Module: s.Module}
}

func (s Selection) Clear() Selection {
	return Selection{}
}

func (s Selection) HasFocus() bool {
	return s.Focus != nil
}

// focusSet runs a forward-only BFS over the graph's outgoing direct and
// transitive edges. A function absent from the graph focuses only itself.
func focusSet(id dataset.FunctionID, g *graph.Graph) map[dataset.FunctionID]bool {
	focus := map[dataset.FunctionID]bool{id: true}
	if g == nil || !g.HasNode(id) {
		return focus
	}
	queue := []dataset.FunctionID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.OutNeighbors(cur) {
			if focus[next] {
				continue
			}
			focus[next] = true
			queue = append(queue, next)
		}
	}
	return focus
}

// Dim returns a copy of the graph with everything outside the focus set
// flagged dimmed. Nodes and edges are never removed, only flagged. Without a
// focus set the copy is fully lit.
func (s Selection) Dim(g *graph.Graph) *graph.Graph {
	if g == nil {
		return nil
	}
	c := g.Clone()
	if s.Focus == nil {
		return c
	}
	for i := range c.Nodes {
		c.Nodes[i].Dimmed = !s.Focus[c.Nodes[i].ID]
	}
	for i := range c.Edges {
		c.Edges[i].Dimmed = !s.Focus[c.Edges[i].Source] || !s.Focus[c.Edges[i].Target]
	}
	return c
}
