package graph

import (
	"sort"
	"time"

	"frontier/internal/engine/attribution"
	"frontier/internal/engine/dataset"
	"frontier/internal/shared/observability"
)

// Significance gate for transitive edges: an endpoint qualifies with at
// least this many newly-reached blocks, or with a unique share at least
// uniqueShareFloor of its total. Endpoints with no new blocks never qualify.
const (
	significantNewBB = 5
	uniqueShareFloor = 0.3
)

// Build folds a module's block-level call edges into a function-level
// reachability graph under the given filters. An empty result is a valid
// state, not an error.
func Build(m *dataset.Module, opts FilterOptions) (*Graph, error) {
	start := time.Now()
	opts = opts.normalized()
	pred, err := opts.compile()
	if err != nil {
		return nil, err
	}

	// Arena of function records indexed by declaration order; traversal
	// works on integer indices, not pointers.
	funcs := m.Functions
	inFilter := make([]bool, len(funcs))
	for i, fn := range funcs {
		inFilter[i] = pred.match(fn)
	}

	adjacency := callAdjacency(m)

	maxDepth := opts.MaxTransitiveDistance
	if maxDepth < 1 {
		// Depth 1 is always explored so direct edges survive D = 0.
		maxDepth = 1
	}

	type pair struct{ src, dst int }
	distances := make(map[pair]int)

	queue := make([]int, 0, len(funcs))
	depth := make([]int, len(funcs))
	visited := make([]bool, len(funcs))

	for s := range funcs {
		if !inFilter[s] {
			continue
		}
		// Independent BFS per origin; visited only prevents revisiting
		// within this traversal, so out-of-filter intermediaries may be
		// crossed again from other origins.
		for i := range visited {
			visited[i] = false
		}
		queue = queue[:0]
		queue = append(queue, s)
		visited[s] = true
		depth[s] = 0

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			d := depth[cur]
			for _, next := range adjacency[cur] {
				if visited[next] {
					continue
				}
				visited[next] = true
				depth[next] = d + 1
				if inFilter[next] && next != s {
					// First reach is the minimum BFS distance.
					distances[pair{s, next}] = d + 1
				}
				if d+1 < maxDepth {
					queue = append(queue, next)
				}
			}
		}
	}

	edges := make([]Edge, 0, len(distances))
	for p, d := range distances {
		src, dst := funcs[p.src], funcs[p.dst]
		if d == 1 {
			edges = append(edges, Edge{
				Source:   src.GID,
				Target:   dst.GID,
				Distance: 1,
				Weight:   dst.Attribution.TotalNewBB,
			})
			continue
		}
		if opts.MaxTransitiveDistance == 0 {
			continue
		}
		if !significant(src) || !significant(dst) {
			continue
		}
		edges = append(edges, Edge{
			Source:     src.GID,
			Target:     dst.GID,
			Distance:   d,
			Transitive: true,
			Weight:     dst.Attribution.TotalNewBB,
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return less(edges[i].Source, edges[j].Source)
		}
		return less(edges[i].Target, edges[j].Target)
	})

	connected := make(map[dataset.FunctionID]bool, len(edges)*2)
	for _, e := range edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}

	// Size bounds span every in-filter function; dropping unconnected nodes
	// below must not shift the scale.
	minBB, maxBB := 0, 0
	firstBB := true
	for i, fn := range funcs {
		if !inFilter[i] {
			continue
		}
		v := fn.Attribution.TotalNewBB
		if firstBB || v < minBB {
			minBB = v
		}
		if firstBB || v > maxBB {
			maxBB = v
		}
		firstBB = false
	}

	nodes := make([]Node, 0)
	for i, fn := range funcs {
		if !inFilter[i] {
			continue
		}
		if !opts.IncludeUnconnected && !connected[fn.GID] {
			continue
		}
		sum := attribution.SummarizeFunction(fn)
		nodes = append(nodes, Node{
			ID:               fn.GID,
			Name:             fn.Name,
			Status:           fn.Status,
			TotalNewBB:       fn.Attribution.TotalNewBB,
			IndirectlyCalled: fn.IndirectlyCalled,
			CoverageClass:    attribution.Quantize(sum.CoverageRatio, sum.NewBlocks).Class,
			FrontierStyle:    attribution.FunctionFrontierStyle(fn),
		})
	}

	g := &Graph{
		ModuleID: m.ID,
		Filters:  opts,
		Nodes:    nodes,
		Edges:    edges,
	}
	g.reindex()
	applyWeights(g, minBB, maxBB)

	observability.GraphNodes.Set(float64(len(g.Nodes)))
	observability.GraphEdges.Set(float64(len(g.Edges)))
	observability.BuildDuration.Observe(time.Since(start).Seconds())

	return g, nil
}

// callAdjacency maps every call edge to owning functions, discarding
// self-loops. It covers all functions, not just the filtered set, so
// out-of-filter functions can act as transparent intermediaries.
func callAdjacency(m *dataset.Module) [][]int {
	adjacency := make([][]int, len(m.Functions))
	seen := make(map[[2]int]bool)
	for _, e := range m.Edges {
		if e.Kind != dataset.EdgeCall {
			continue
		}
		srcFn, ok := m.OwnerOf(e.SrcRVA)
		if !ok {
			continue
		}
		dstFn, ok := m.OwnerOf(e.DstRVA)
		if !ok {
			continue
		}
		if srcFn.Index == dstFn.Index {
			continue
		}
		key := [2]int{srcFn.Index, dstFn.Index}
		if seen[key] {
			continue
		}
		seen[key] = true
		adjacency[srcFn.Index] = append(adjacency[srcFn.Index], dstFn.Index)
	}
	for _, targets := range adjacency {
		sort.Ints(targets)
	}
	return adjacency
}

func significant(fn *dataset.Function) bool {
	total := fn.Attribution.TotalNewBB
	if total <= 0 {
		return false
	}
	if total >= significantNewBB {
		return true
	}
	return float64(fn.Attribution.UniqueNewBB)/float64(total) >= uniqueShareFloor
}

func less(a, b dataset.FunctionID) bool {
	if a.Module != b.Module {
		return a.Module < b.Module
	}
	return a.Func < b.Func
}
