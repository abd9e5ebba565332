// Package covdb builds the wire-format dataset straight from the coverage
// analyzer's SQLite database pair, skipping the intermediate JSON export.
// master.db holds the static analysis (functions, basic blocks, call edges);
// the coverage database holds the campaign diff (bb_labels, frontier tables,
// unlock scores, executed-graph edges).
package covdb

import (
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"frontier/internal/core/errors"
	"frontier/internal/engine/dataset"
)

type blockLabel struct {
	rva  uint64
	fn   int
	inA  bool
	inB  bool
	size int
}

// Read produces a dataset Root equivalent to the JSON exporter's output for
// every binary present in the coverage database.
func Read(masterPath, covPath string) (*dataset.Root, error) {
	master, err := openRO(masterPath)
	if err != nil {
		return nil, err
	}
	defer master.Close()

	cov, err := openRO(covPath)
	if err != nil {
		return nil, err
	}
	defer cov.Close()

	ids, err := binaryIDs(cov)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.CodeMalformedDataset, "coverage database has no labeled binaries")
	}

	root := dataset.NewRoot()
	for _, id := range ids {
		mod, err := readModule(master, cov, id)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxModule, id)
		}
		root.Modules = append(root.Modules, *mod)
	}
	return root, nil
}

func openRO(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return db, nil
}

func binaryIDs(cov *sql.DB) ([]int, error) {
	rows, err := cov.Query(`SELECT DISTINCT binary_id FROM bb_labels ORDER BY binary_id`)
	if err != nil {
		return nil, fmt.Errorf("query binaries: %w", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func readModule(master, cov *sql.DB, binaryID int) (*dataset.WireModule, error) {
	name, err := moduleName(master, cov, binaryID)
	if err != nil {
		return nil, err
	}

	labels, err := coveredBlocks(cov, binaryID)
	if err != nil {
		return nil, err
	}
	if err := attachBlockSizes(master, binaryID, labels); err != nil {
		return nil, err
	}

	frontiers, err := frontierTypes(cov, binaryID)
	if err != nil {
		return nil, err
	}
	frontierAttr, err := frontierAttribution(cov, binaryID)
	if err != nil {
		return nil, err
	}
	scores, err := unlockScores(cov, binaryID)
	if err != nil {
		return nil, err
	}
	directCallees, err := directCallTargets(master, binaryID)
	if err != nil {
		return nil, err
	}

	// Group covered blocks by owning function.
	byFunc := make(map[int][]*blockLabel)
	for _, bl := range labels {
		byFunc[bl.fn] = append(byFunc[bl.fn], bl)
	}

	funcs, err := readFunctions(master, binaryID, byFunc, frontiers, frontierAttr, scores, directCallees)
	if err != nil {
		return nil, err
	}

	edges, err := readEdges(cov, binaryID)
	if err != nil {
		return nil, err
	}

	stats := computeStatistics(labels, funcs)
	status := moduleStatus(stats)

	return &dataset.WireModule{
		BinaryID:   &binaryID,
		ModuleName: &name,
		Status:     &status,
		Statistics: stats,
		Functions:  funcs,
		Edges:      edges,
	}, nil
}

func moduleName(master, cov *sql.DB, binaryID int) (string, error) {
	var name string
	err := cov.QueryRow(`SELECT module_name FROM module_binary_map WHERE binary_id = ?`, binaryID).Scan(&name)
	if err == nil && name != "" {
		return name, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("query module map: %w", err)
	}
	err = master.QueryRow(`SELECT binary_name FROM analyzed_binaries WHERE binary_id = ?`, binaryID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("query binary name: %w", err)
	}
	return name, nil
}

func coveredBlocks(cov *sql.DB, binaryID int) (map[uint64]*blockLabel, error) {
	rows, err := cov.Query(`SELECT bb_rva, func_id, in_A, in_B FROM bb_labels WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query bb_labels: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]*blockLabel)
	for rows.Next() {
		var bl blockLabel
		var inA, inB int
		if err := rows.Scan(&bl.rva, &bl.fn, &inA, &inB); err != nil {
			return nil, err
		}
		bl.inA, bl.inB = inA != 0, inB != 0
		out[bl.rva] = &bl
	}
	return out, rows.Err()
}

func attachBlockSizes(master *sql.DB, binaryID int, labels map[uint64]*blockLabel) error {
	rows, err := master.Query(`SELECT bb_rva, bb_start_va, bb_end_va FROM basic_blocks WHERE binary_id = ?`, binaryID)
	if err != nil {
		return fmt.Errorf("query basic_blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rva, start, end uint64
		if err := rows.Scan(&rva, &start, &end); err != nil {
			return err
		}
		if bl, ok := labels[rva]; ok && end >= start {
			bl.size = int(end - start)
		}
	}
	return rows.Err()
}

func frontierTypes(cov *sql.DB, binaryID int) (map[uint64]string, error) {
	rows, err := cov.Query(`SELECT bb_rva, frontier_type FROM frontier_targets WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query frontier_targets: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]string)
	for rows.Next() {
		var rva uint64
		var ft string
		if err := rows.Scan(&rva, &ft); err != nil {
			return nil, err
		}
		// Analyzer stores bare "strong"/"weak"; the wire format carries the
		// suffixed form.
		switch ft {
		case "strong":
			ft = "strong_frontier"
		case "weak":
			ft = "weak_frontier"
		}
		out[rva] = ft
	}
	return out, rows.Err()
}

func frontierAttribution(cov *sql.DB, binaryID int) (map[uint64]dataset.WireFrontierAttribution, error) {
	rows, err := cov.Query(`
SELECT frontier_bb_rva, unique_new_bb_count, shared_new_bb_count, attributed_new_bb_count
FROM frontier_attribution WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query frontier_attribution: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]dataset.WireFrontierAttribution)
	for rows.Next() {
		var rva uint64
		var fa dataset.WireFrontierAttribution
		if err := rows.Scan(&rva, &fa.UniqueNewBB, &fa.SharedNewBB, &fa.TotalNewBB); err != nil {
			return nil, err
		}
		out[rva] = fa
	}
	return out, rows.Err()
}

func unlockScores(cov *sql.DB, binaryID int) (map[int]dataset.WireAttribution, error) {
	rows, err := cov.Query(`
SELECT func_id, unique_new_bb, shared_new_bb, total_new_bb, frontier_count, strong_frontier_count, weak_frontier_count
FROM function_unlock_scores WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query function_unlock_scores: %w", err)
	}
	defer rows.Close()

	out := make(map[int]dataset.WireAttribution)
	for rows.Next() {
		var fn int
		var attr dataset.WireAttribution
		if err := rows.Scan(&fn, &attr.UniqueNewBB, &attr.SharedNewBB, &attr.TotalNewBB,
			&attr.FrontierCount, &attr.StrongFrontierCount, &attr.WeakFrontierCount); err != nil {
			return nil, err
		}
		out[fn] = attr
	}
	return out, rows.Err()
}

// directCallTargets lists functions with at least one incoming static call
// edge; everything else is likely reached indirectly (vtable, callback).
func directCallTargets(master *sql.DB, binaryID int) (map[int]bool, error) {
	rows, err := master.Query(`
SELECT DISTINCT dst_func_id FROM call_edges_static
WHERE binary_id = ? AND dst_func_id IS NOT NULL`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query call_edges_static: %w", err)
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var fn int
		if err := rows.Scan(&fn); err != nil {
			return nil, err
		}
		out[fn] = true
	}
	return out, rows.Err()
}

func readFunctions(master *sql.DB, binaryID int, byFunc map[int][]*blockLabel,
	frontiers map[uint64]string, frontierAttr map[uint64]dataset.WireFrontierAttribution,
	scores map[int]dataset.WireAttribution, directCallees map[int]bool) ([]dataset.WireFunction, error) {

	rows, err := master.Query(`SELECT func_id, func_name, entry_rva, func_size FROM functions WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer rows.Close()

	var funcs []dataset.WireFunction
	for rows.Next() {
		var (
			id       int
			name     string
			entry    uint64
			funcSize int
		)
		if err := rows.Scan(&id, &name, &entry, &funcSize); err != nil {
			return nil, err
		}
		blocks, covered := byFunc[id]
		if !covered {
			continue
		}

		sort.Slice(blocks, func(i, j int) bool { return blocks[i].rva < blocks[j].rva })

		wireBlocks := make([]dataset.WireBlock, 0, len(blocks))
		anyNew, allNew := false, true
		for _, bl := range blocks {
			status := blockStatus(bl.inA, bl.inB)
			if status == "new" {
				anyNew = true
			} else {
				allNew = false
			}
			wb := dataset.WireBlock{
				BBRVA:  rvaPtr(bl.rva),
				BBSize: intPtr(bl.size),
				Status: strPtr(status),
			}
			if ft, ok := frontiers[bl.rva]; ok {
				wb.IsFrontier = true
				wb.FrontierType = strPtr(ft)
				if fa, ok := frontierAttr[bl.rva]; ok {
					wb.FrontierAttribution = &fa
				}
			}
			wireBlocks = append(wireBlocks, wb)
		}

		status := "old"
		if anyNew {
			status = "changed"
			if allNew {
				status = "new"
			}
		}

		funcs = append(funcs, dataset.WireFunction{
			FuncID:             &id,
			FuncName:           name,
			EntryRVA:           dataset.RVA(entry),
			FuncSize:           intPtr(funcSize),
			Status:             strPtr(status),
			IsIndirectlyCalled: !directCallees[id],
			Attribution:        scores[id],
			Blocks:             wireBlocks,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(funcs, func(i, j int) bool { return *funcs[i].FuncID < *funcs[j].FuncID })
	return funcs, nil
}

func readEdges(cov *sql.DB, binaryID int) ([]dataset.WireEdge, error) {
	frontierEdges := make(map[[2]uint64]bool)
	rows, err := cov.Query(`SELECT src_bb_rva, dst_bb_rva FROM frontier_edges WHERE binary_id = ?`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query frontier_edges: %w", err)
	}
	for rows.Next() {
		var src, dst uint64
		if err := rows.Scan(&src, &dst); err != nil {
			rows.Close()
			return nil, err
		}
		frontierEdges[[2]uint64{src, dst}] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Super-root sentinel endpoints (-1) never reach the wire format.
	rows, err = cov.Query(`
SELECT src_bb_rva, dst_bb_rva, edge_type FROM graph_B_edges
WHERE binary_id = ? AND src_bb_rva != -1 AND dst_bb_rva != -1`, binaryID)
	if err != nil {
		return nil, fmt.Errorf("query graph_B_edges: %w", err)
	}
	defer rows.Close()

	var edges []dataset.WireEdge
	for rows.Next() {
		var src, dst uint64
		var kind string
		if err := rows.Scan(&src, &dst, &kind); err != nil {
			return nil, err
		}
		edges = append(edges, dataset.WireEdge{
			SrcBBRVA:       rvaPtr(src),
			DstBBRVA:       rvaPtr(dst),
			EdgeType:       kind,
			IsFrontierEdge: frontierEdges[[2]uint64{src, dst}],
		})
	}
	return edges, rows.Err()
}

func blockStatus(inA, inB bool) string {
	switch {
	case inB && !inA:
		return "new"
	case inA && !inB:
		return "in_A"
	default:
		return "in_both"
	}
}

func computeStatistics(labels map[uint64]*blockLabel, funcs []dataset.WireFunction) dataset.WireStatistics {
	var stats dataset.WireStatistics
	for _, bl := range labels {
		stats.TotalBlocks++
		if bl.inA {
			stats.BlocksInA++
		}
		if bl.inB {
			stats.BlocksInB++
		}
		if bl.inB && !bl.inA {
			stats.NewBlocks++
		}
	}
	for _, fn := range funcs {
		switch *fn.Status {
		case "new":
			stats.NewFunctions++
		case "changed":
			stats.ChangedFunctions++
		default:
			stats.OldFunctions++
		}
	}
	return stats
}

func moduleStatus(stats dataset.WireStatistics) string {
	total := stats.NewFunctions + stats.ChangedFunctions + stats.OldFunctions
	if stats.NewFunctions > 0 || stats.ChangedFunctions > 0 {
		if total > 0 && stats.NewFunctions == total {
			return "new"
		}
		return "changed"
	}
	return "old"
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func rvaPtr(v uint64) *dataset.RVA {
	r := dataset.RVA(v)
	return &r
}
