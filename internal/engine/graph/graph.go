package graph

import (
	"frontier/internal/engine/attribution"
	"frontier/internal/engine/dataset"
)

type Node struct {
	ID               dataset.FunctionID
	Name             string
	Status           dataset.Status
	TotalNewBB       int
	IndirectlyCalled bool
	CoverageClass    attribution.CoverageClass
	FrontierStyle    attribution.FrontierStyle
	Size             float64
	Dimmed           bool
}

type Edge struct {
	Source     dataset.FunctionID
	Target     dataset.FunctionID
	Distance   int
	Transitive bool
	Weight     int
	Thickness  ThicknessClass
	Width      float64
	Dimmed     bool
}

// Graph is one immutable reachability snapshot for a single module under one
// filter configuration. It is replaced wholesale on recompute.
type Graph struct {
	ModuleID int
	Filters  FilterOptions
	Nodes    []Node
	Edges    []Edge

	nodeIndex map[dataset.FunctionID]int
	out       map[dataset.FunctionID][]dataset.FunctionID
}

// New assembles a snapshot from prebuilt nodes and edges and indexes it.
// Build is the normal path; this exists for composition and rendering tests.
func New(moduleID int, filters FilterOptions, nodes []Node, edges []Edge) *Graph {
	g := &Graph{ModuleID: moduleID, Filters: filters, Nodes: nodes, Edges: edges}
	g.reindex()
	return g
}

func (g *Graph) Node(id dataset.FunctionID) (Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

func (g *Graph) HasNode(id dataset.FunctionID) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// OutNeighbors returns the forward adjacency (direct and transitive edges
// combined) used by focus-set traversal.
func (g *Graph) OutNeighbors(id dataset.FunctionID) []dataset.FunctionID {
	return g.out[id]
}

// Clone deep-copies the snapshot so selection dimming never mutates a
// published graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := &Graph{
		ModuleID:  g.ModuleID,
		Filters:   g.Filters,
		Nodes:     append([]Node(nil), g.Nodes...),
		Edges:     append([]Edge(nil), g.Edges...),
		nodeIndex: make(map[dataset.FunctionID]int, len(g.nodeIndex)),
		out:       make(map[dataset.FunctionID][]dataset.FunctionID, len(g.out)),
	}
	for k, v := range g.nodeIndex {
		c.nodeIndex[k] = v
	}
	for k, v := range g.out {
		c.out[k] = append([]dataset.FunctionID(nil), v...)
	}
	return c
}

func (g *Graph) reindex() {
	g.nodeIndex = make(map[dataset.FunctionID]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.nodeIndex[n.ID] = i
	}
	g.out = make(map[dataset.FunctionID][]dataset.FunctionID)
	for _, e := range g.Edges {
		g.out[e.Source] = append(g.out[e.Source], e.Target)
	}
}
