package output

import (
	"encoding/json"
	"fmt"

	"frontier/internal/engine/graph"
)

// JSONGenerator emits the presentation payload consumed by external renderers.
// It mirrors the graph snapshot shape, with composite function ids flattened
// to "module:func" strings.
type JSONGenerator struct {
	graph *graph.Graph
}

func NewJSONGenerator(g *graph.Graph) *JSONGenerator {
	return &JSONGenerator{graph: g}
}

type jsonNode struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	TotalNewBB       int     `json:"total_new_bb"`
	IndirectlyCalled bool    `json:"indirectly_called"`
	CoverageClass    string  `json:"coverage_class"`
	FrontierStyle    string  `json:"frontier_style"`
	Size             float64 `json:"size"`
	Dimmed           bool    `json:"dimmed"`
}

type jsonEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Distance   int     `json:"distance"`
	Transitive bool    `json:"transitive"`
	Weight     int     `json:"weight"`
	Thickness  string  `json:"thickness"`
	Width      float64 `json:"width"`
	Dimmed     bool    `json:"dimmed"`
}

type jsonPayload struct {
	ModuleID int        `json:"module_id"`
	Filters  string     `json:"filter_signature"`
	Nodes    []jsonNode `json:"nodes"`
	Edges    []jsonEdge `json:"edges"`
}

func (j *JSONGenerator) Generate() (string, error) {
	if j.graph == nil {
		return "", fmt.Errorf("no graph to render")
	}

	payload := jsonPayload{
		ModuleID: j.graph.ModuleID,
		Filters:  j.graph.Filters.Signature(),
		Nodes:    make([]jsonNode, 0, len(j.graph.Nodes)),
		Edges:    make([]jsonEdge, 0, len(j.graph.Edges)),
	}

	for _, n := range j.graph.Nodes {
		payload.Nodes = append(payload.Nodes, jsonNode{
			ID:               n.ID.String(),
			Name:             n.Name,
			Status:           string(n.Status),
			TotalNewBB:       n.TotalNewBB,
			IndirectlyCalled: n.IndirectlyCalled,
			CoverageClass:    string(n.CoverageClass),
			FrontierStyle:    string(n.FrontierStyle),
			Size:             n.Size,
			Dimmed:           n.Dimmed,
		})
	}
	for _, e := range j.graph.Edges {
		payload.Edges = append(payload.Edges, jsonEdge{
			Source:     e.Source.String(),
			Target:     e.Target.String(),
			Distance:   e.Distance,
			Transitive: e.Transitive,
			Weight:     e.Weight,
			Thickness:  string(e.Thickness),
			Width:      e.Width,
			Dimmed:     e.Dimmed,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal graph payload: %w", err)
	}
	return string(data) + "\n", nil
}
