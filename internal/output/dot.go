package output

import (
	"fmt"
	"strings"

	"frontier/internal/engine/attribution"
	"frontier/internal/engine/graph"
)

type DOTGenerator struct {
	graph *graph.Graph
}

func NewDOTGenerator(g *graph.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate() (string, error) {
	if d.graph == nil {
		return "", fmt.Errorf("no graph to render")
	}

	var buf strings.Builder

	buf.WriteString("digraph reachability {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	for _, n := range d.graph.Nodes {
		label := fmt.Sprintf("%s\\n%s, %d new bb", escape(n.Name), n.Status, n.TotalNewBB)
		if n.IndirectlyCalled {
			label += "\\n(indirect)"
		}

		fill := classFill(n.CoverageClass)
		border := "darkslategrey"
		penwidth := 1.0
		switch n.FrontierStyle {
		case attribution.StyleStrong:
			border, penwidth = "red", 2.0
		case attribution.StyleWeak:
			border, penwidth = "darkorange", 1.6
		}
		fontcolor := "black"
		if n.Dimmed {
			fill, border, fontcolor = "gainsboro", "grey", "grey40"
		}

		buf.WriteString(fmt.Sprintf(
			"  \"%s\" [label=\"%s\", fillcolor=\"%s\", color=\"%s\", penwidth=%.1f, fontcolor=\"%s\", width=%.2f];\n",
			n.ID, label, fill, border, penwidth, fontcolor, n.Size/10))
	}
	buf.WriteString("\n")

	for _, e := range d.graph.Edges {
		color := "forestgreen"
		style := "solid"
		if e.Transitive {
			color = "steelblue"
			style = "dashed"
		}
		if e.Dimmed {
			color = "grey"
		}
		label := ""
		if e.Transitive {
			label = fmt.Sprintf(", label=\"d=%d\"", e.Distance)
		}
		buf.WriteString(fmt.Sprintf(
			"  \"%s\" -> \"%s\" [color=\"%s\", style=%s, penwidth=%.1f%s];\n",
			e.Source, e.Target, color, style, e.Width, label))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func classFill(c attribution.CoverageClass) string {
	switch c {
	case attribution.ClassComplete:
		return "palegreen"
	case attribution.ClassHigh:
		return "gold"
	case attribution.ClassMidHigh:
		return "khaki"
	case attribution.ClassLowMid:
		return "lightyellow"
	case attribution.ClassLow:
		return "white"
	default:
		return "whitesmoke"
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
