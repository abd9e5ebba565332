package output

import (
	"fmt"
	"strings"

	"frontier/internal/engine/graph"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

// Generate writes one row per edge with both endpoints resolved to names.
func (t *TSVGenerator) Generate() (string, error) {
	if t.graph == nil {
		return "", fmt.Errorf("no graph to render")
	}

	var buf strings.Builder

	buf.WriteString("Source\tSourceName\tTarget\tTargetName\tDistance\tTransitive\tWeight\tThickness\n")
	for _, e := range t.graph.Edges {
		srcName, dstName := "", ""
		if n, ok := t.graph.Node(e.Source); ok {
			srcName = n.Name
		}
		if n, ok := t.graph.Node(e.Target); ok {
			dstName = n.Name
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%t\t%d\t%s\n",
			e.Source, srcName, e.Target, dstName,
			e.Distance, e.Transitive, e.Weight, e.Thickness))
	}

	return buf.String(), nil
}

// GenerateNodes writes one row per node with its derived visual attributes.
func (t *TSVGenerator) GenerateNodes() (string, error) {
	if t.graph == nil {
		return "", fmt.Errorf("no graph to render")
	}

	var buf strings.Builder

	buf.WriteString("ID\tName\tStatus\tTotalNewBB\tIndirect\tCoverageClass\tFrontierStyle\tSize\n")
	for _, n := range t.graph.Nodes {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%t\t%s\t%s\t%.1f\n",
			n.ID, n.Name, n.Status, n.TotalNewBB, n.IndirectlyCalled,
			n.CoverageClass, n.FrontierStyle, n.Size))
	}

	return buf.String(), nil
}
