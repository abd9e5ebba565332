package attribution

import "frontier/internal/engine/dataset"

// ModuleSummary carries the derived per-module statistics used by the cell
// classifier and the weight bucketer. Counts are recomputed from the owned
// entities rather than trusted from the wire statistics block, so stale
// exporter aggregates cannot skew classification.
type ModuleSummary struct {
	ModuleID         int
	NewFunctions     int
	ChangedFunctions int
	OldFunctions     int
	TotalBlocks      int
	NewBlocks        int
	CoverageRatio    float64
}

type FunctionSummary struct {
	GID           dataset.FunctionID
	TotalBlocks   int
	NewBlocks     int
	CoverageRatio float64
}

func SummarizeModule(m *dataset.Module) ModuleSummary {
	s := ModuleSummary{ModuleID: m.ID}
	for _, fn := range m.Functions {
		switch fn.Status {
		case dataset.StatusNew:
			s.NewFunctions++
		case dataset.StatusChanged:
			s.ChangedFunctions++
		default:
			s.OldFunctions++
		}
		for _, b := range fn.Blocks {
			s.TotalBlocks++
			if b.Status == dataset.BlockNew {
				s.NewBlocks++
			}
		}
	}
	if s.TotalBlocks > 0 {
		s.CoverageRatio = float64(s.NewBlocks) / float64(s.TotalBlocks)
	}
	return s
}

func SummarizeFunction(fn *dataset.Function) FunctionSummary {
	s := FunctionSummary{GID: fn.GID}
	for _, b := range fn.Blocks {
		s.TotalBlocks++
		if b.Status == dataset.BlockNew {
			s.NewBlocks++
		}
	}
	if s.TotalBlocks > 0 {
		s.CoverageRatio = float64(s.NewBlocks) / float64(s.TotalBlocks)
	}
	return s
}
