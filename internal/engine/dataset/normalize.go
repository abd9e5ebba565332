package dataset

import (
	"log/slog"

	"frontier/internal/core/errors"
)

// Normalize validates the wire dataset and builds the indexed in-memory form.
// Missing required fields are fatal (MALFORMED_DATASET, no partial state);
// edges with unresolvable endpoints are dropped and counted as orphans.
func Normalize(root *Root) (*Dataset, error) {
	if root == nil || !root.hasModules {
		return nil, errors.New(errors.CodeMalformedDataset, "dataset has no module collection")
	}

	ds := &Dataset{
		Modules:    make([]*Module, 0, len(root.Modules)),
		moduleByID: make(map[int]*Module, len(root.Modules)),
		funcByGID:  make(map[FunctionID]*Function),
	}

	for i, wm := range root.Modules {
		if wm.BinaryID == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset, "module %d: missing binary_id", i)
		}
		if wm.ModuleName == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset, "module %d: missing module_name", i)
		}
		if wm.Status == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset, "module %d: missing status", i)
		}
		status, ok := parseStatus(*wm.Status)
		if !ok {
			return nil, errors.Newf(errors.CodeMalformedDataset, "module %d: unknown status %q", i, *wm.Status)
		}
		if _, dup := ds.moduleByID[*wm.BinaryID]; dup {
			return nil, errors.Newf(errors.CodeMalformedDataset, "duplicate module id %d", *wm.BinaryID)
		}

		mod := &Module{
			ID:     *wm.BinaryID,
			Name:   *wm.ModuleName,
			Status: status,
			Stats: ModuleStatistics{
				TotalBlocks:      wm.Statistics.TotalBlocks,
				NewBlocks:        wm.Statistics.NewBlocks,
				NewFunctions:     wm.Statistics.NewFunctions,
				ChangedFunctions: wm.Statistics.ChangedFunctions,
				OldFunctions:     wm.Statistics.OldFunctions,
				BlocksInA:        wm.Statistics.BlocksInA,
				BlocksInB:        wm.Statistics.BlocksInB,
			},
			Functions:  make([]*Function, 0, len(wm.Functions)),
			blockOwner: make(map[uint64]*Function),
		}

		for j, wf := range wm.Functions {
			fn, err := normalizeFunction(mod, j, wf)
			if err != nil {
				return nil, err
			}
			if _, dup := ds.funcByGID[fn.GID]; dup {
				return nil, errors.Newf(errors.CodeMalformedDataset,
					"module %d: duplicate function id %d", mod.ID, fn.ID)
			}
			mod.Functions = append(mod.Functions, fn)
			mod.Size += fn.Size
			ds.funcByGID[fn.GID] = fn
			for _, b := range fn.Blocks {
				mod.blockOwner[b.RVA] = fn
			}
		}

		orphans := 0
		mod.Edges = make([]Edge, 0, len(wm.Edges))
		for _, we := range wm.Edges {
			if we.SrcBBRVA == nil || we.DstBBRVA == nil {
				orphans++
				continue
			}
			src, dst := uint64(*we.SrcBBRVA), uint64(*we.DstBBRVA)
			if _, ok := mod.blockOwner[src]; !ok {
				orphans++
				continue
			}
			if _, ok := mod.blockOwner[dst]; !ok {
				orphans++
				continue
			}
			mod.Edges = append(mod.Edges, Edge{
				SrcRVA:         src,
				DstRVA:         dst,
				Kind:           edgeKindOf(we.EdgeType),
				IsFrontierEdge: we.IsFrontierEdge,
			})
		}
		if orphans > 0 {
			slog.Warn("dropped orphan edges", "module", mod.Name, "count", orphans)
		}
		ds.OrphanEdges += orphans

		ds.Modules = append(ds.Modules, mod)
		ds.moduleByID[mod.ID] = mod
	}

	return ds, nil
}

func normalizeFunction(mod *Module, index int, wf WireFunction) (*Function, error) {
	if wf.FuncID == nil {
		return nil, errors.Newf(errors.CodeMalformedDataset,
			"module %d function %d: missing func_id", mod.ID, index)
	}
	if wf.FuncSize == nil {
		return nil, errors.Newf(errors.CodeMalformedDataset,
			"module %d function %d: missing func_size", mod.ID, *wf.FuncID)
	}
	if wf.Status == nil {
		return nil, errors.Newf(errors.CodeMalformedDataset,
			"module %d function %d: missing status", mod.ID, *wf.FuncID)
	}
	status, ok := parseStatus(*wf.Status)
	if !ok {
		return nil, errors.Newf(errors.CodeMalformedDataset,
			"module %d function %d: unknown status %q", mod.ID, *wf.FuncID, *wf.Status)
	}

	fn := &Function{
		ID:               *wf.FuncID,
		GID:              FunctionID{Module: mod.ID, Func: *wf.FuncID},
		Name:             wf.FuncName,
		EntryRVA:         uint64(wf.EntryRVA),
		Size:             *wf.FuncSize,
		Status:           status,
		IndirectlyCalled: wf.IsIndirectlyCalled,
		Attribution: Attribution{
			UniqueNewBB:         wf.Attribution.UniqueNewBB,
			SharedNewBB:         wf.Attribution.SharedNewBB,
			TotalNewBB:          wf.Attribution.TotalNewBB,
			FrontierCount:       wf.Attribution.FrontierCount,
			StrongFrontierCount: wf.Attribution.StrongFrontierCount,
			WeakFrontierCount:   wf.Attribution.WeakFrontierCount,
		},
		Blocks: make([]*BasicBlock, 0, len(wf.Blocks)),
		Index:  index,
	}

	for k, wb := range wf.Blocks {
		if wb.BBRVA == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset,
				"function %s block %d: missing bb_rva", fn.GID, k)
		}
		if wb.BBSize == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset,
				"function %s block %#x: missing bb_size", fn.GID, uint64(*wb.BBRVA))
		}
		if wb.Status == nil {
			return nil, errors.Newf(errors.CodeMalformedDataset,
				"function %s block %#x: missing status", fn.GID, uint64(*wb.BBRVA))
		}
		bstatus, ok := parseBlockStatus(*wb.Status)
		if !ok {
			return nil, errors.Newf(errors.CodeMalformedDataset,
				"function %s block %#x: unknown status %q", fn.GID, uint64(*wb.BBRVA), *wb.Status)
		}

		block := &BasicBlock{
			RVA:        uint64(*wb.BBRVA),
			Size:       *wb.BBSize,
			Status:     bstatus,
			IsFrontier: wb.IsFrontier,
		}
		if wb.IsFrontier {
			block.FrontierType = parseFrontierType(wb.FrontierType)
			if wb.FrontierAttribution != nil {
				block.Attribution = &FrontierAttribution{
					UniqueNewBB: wb.FrontierAttribution.UniqueNewBB,
					SharedNewBB: wb.FrontierAttribution.SharedNewBB,
					TotalNewBB:  wb.FrontierAttribution.TotalNewBB,
				}
			} else {
				block.Attribution = &FrontierAttribution{}
			}
		}
		fn.Blocks = append(fn.Blocks, block)
	}

	return fn, nil
}

func parseStatus(s string) (Status, bool) {
	switch s {
	case "new":
		return StatusNew, true
	case "changed":
		return StatusChanged, true
	case "old", "unchanged":
		return StatusOld, true
	}
	return "", false
}

func parseBlockStatus(s string) (BlockStatus, bool) {
	switch s {
	case "new":
		return BlockNew, true
	case "in_both":
		return BlockInBoth, true
	case "in_A":
		return BlockInA, true
	}
	return "", false
}

func parseFrontierType(s *string) FrontierType {
	if s == nil {
		return FrontierNone
	}
	switch *s {
	case "strong_frontier", "strong":
		return FrontierStrong
	case "weak_frontier", "weak":
		return FrontierWeak
	}
	return FrontierNone
}
