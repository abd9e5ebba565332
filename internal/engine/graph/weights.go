package graph

import "sort"

type ThicknessClass string

const (
	ThicknessLight    ThicknessClass = "light"
	ThicknessMedium   ThicknessClass = "medium"
	ThicknessHeavy    ThicknessClass = "heavy"
	ThicknessHeaviest ThicknessClass = "heaviest"
)

// Percentile breakpoints over the combined direct+transitive edge weights.
type Percentiles struct {
	P50 int
	P75 int
	P90 int
}

// ComputePercentiles sorts ascending and indexes at floor(n*q); an
// out-of-range index yields 0.
func ComputePercentiles(weights []int) Percentiles {
	sorted := append([]int(nil), weights...)
	sort.Ints(sorted)
	at := func(q float64) int {
		idx := int(float64(len(sorted)) * q)
		if idx < 0 || idx >= len(sorted) {
			return 0
		}
		return sorted[idx]
	}
	return Percentiles{P50: at(0.5), P75: at(0.75), P90: at(0.9)}
}

func (p Percentiles) Classify(w int) ThicknessClass {
	switch {
	case w >= p.P90:
		return ThicknessHeaviest
	case w >= p.P75:
		return ThicknessHeavy
	case w >= p.P50:
		return ThicknessMedium
	default:
		return ThicknessLight
	}
}

// Direct and transitive edges share breakpoints but render on different
// scales; transitive edges are thinner at every class, reflecting lower
// confidence.
var (
	directWidths = map[ThicknessClass]float64{
		ThicknessLight:    1.2,
		ThicknessMedium:   1.8,
		ThicknessHeavy:    2.4,
		ThicknessHeaviest: 3.2,
	}
	transitiveWidths = map[ThicknessClass]float64{
		ThicknessLight:    0.8,
		ThicknessMedium:   1.2,
		ThicknessHeavy:    1.6,
		ThicknessHeaviest: 2.2,
	}
)

// Node sizes interpolate linearly between these bounds over total_new_bb
// within the filtered set. Uniform sets and zero values collapse to the
// minimum rather than inflating visually.
const (
	minNodeSize = 6.0
	maxNodeSize = 28.0
)

// applyWeights buckets edge weights and interpolates node sizes. minBB and
// maxBB are the total_new_bb extremes over the whole filtered set, which may
// be wider than the surviving node list.
func applyWeights(g *Graph, minBB, maxBB int) {
	weights := make([]int, 0, len(g.Edges))
	for _, e := range g.Edges {
		weights = append(weights, e.Weight)
	}
	p := ComputePercentiles(weights)

	for i := range g.Edges {
		class := p.Classify(g.Edges[i].Weight)
		g.Edges[i].Thickness = class
		if g.Edges[i].Transitive {
			g.Edges[i].Width = transitiveWidths[class]
		} else {
			g.Edges[i].Width = directWidths[class]
		}
	}

	for i := range g.Nodes {
		v := g.Nodes[i].TotalNewBB
		if v == 0 || minBB == maxBB {
			g.Nodes[i].Size = minNodeSize
			continue
		}
		t := float64(v-minBB) / float64(maxBB-minBB)
		g.Nodes[i].Size = minNodeSize + t*(maxNodeSize-minNodeSize)
	}
}
