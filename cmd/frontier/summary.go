package main

import (
	"fmt"
	"sort"
	"strings"

	"frontier/internal/core/app"
	"frontier/internal/engine/attribution"
	"frontier/internal/engine/graph"
)

const topFunctions = 10

func printSummary(a *app.App, analysis *app.Analysis) {
	fmt.Print(formatSummary(a, analysis))
}

func formatSummary(a *app.App, analysis *app.Analysis) string {
	var b strings.Builder

	ds := a.Dataset()
	mod, _ := ds.Module(analysis.ModuleID)

	b.WriteString("Coverage Frontier Summary\n")
	b.WriteString("=========================\n")
	if mod != nil {
		// Counts come from the owned entities, not the exporter's statistics
		// block, so a stale aggregate cannot skew the report.
		sum := attribution.SummarizeModule(mod)
		b.WriteString(fmt.Sprintf("Module: %s (id %d, %s)\n", mod.Name, mod.ID, mod.Status))
		b.WriteString(fmt.Sprintf("Blocks: %d total, %d new (A: %d, B: %d)\n",
			sum.TotalBlocks, sum.NewBlocks, mod.Stats.BlocksInA, mod.Stats.BlocksInB))
		b.WriteString(fmt.Sprintf("Functions: %d new, %d changed, %d old\n",
			sum.NewFunctions, sum.ChangedFunctions, sum.OldFunctions))
	}
	b.WriteString(fmt.Sprintf("Filters: %s\n", analysis.Filters.Signature()))
	b.WriteString(fmt.Sprintf("Graph: %d nodes, %d edges\n\n",
		len(analysis.Graph.Nodes), len(analysis.Graph.Edges)))

	strong, weak := 0, 0
	for _, n := range analysis.Graph.Nodes {
		switch n.FrontierStyle {
		case attribution.StyleStrong:
			strong++
		case attribution.StyleWeak:
			weak++
		}
	}
	b.WriteString(fmt.Sprintf("Frontier functions: %d strong, %d weak\n\n", strong, weak))

	nodes := append([]graph.Node(nil), analysis.Graph.Nodes...)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].TotalNewBB != nodes[j].TotalNewBB {
			return nodes[i].TotalNewBB > nodes[j].TotalNewBB
		}
		return nodes[i].Name < nodes[j].Name
	})
	if len(nodes) > topFunctions {
		nodes = nodes[:topFunctions]
	}

	b.WriteString(fmt.Sprintf("Top functions by new coverage (%d)\n", len(nodes)))
	for _, n := range nodes {
		marker := ""
		if n.FrontierStyle != attribution.StyleNone {
			marker = fmt.Sprintf(" [%s frontier]", n.FrontierStyle)
		}
		b.WriteString(fmt.Sprintf("- %-40s %4d new bb, %s%s\n",
			n.Name, n.TotalNewBB, n.CoverageClass, marker))
	}

	return b.String()
}
