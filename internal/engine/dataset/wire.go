package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"frontier/internal/core/errors"
)

// RVA accepts both JSON numbers and the analyzer's hex-string form ("0x1a2b").
type RVA uint64

func (r *RVA) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("rva must not be null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return fmt.Errorf("invalid hex rva %q: %w", s, err)
		}
		*r = RVA(v)
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rva %s: %w", data, err)
	}
	*r = RVA(v)
	return nil
}

// Root is the wire-format dataset produced by the coverage diff pipeline.
// Required fields use pointers so that absence is distinguishable from zero.
type Root struct {
	Version string       `json:"version"`
	Modules []WireModule `json:"modules"`

	// set when the modules key itself was present (even if empty)
	hasModules bool
}

// NewRoot returns an empty Root that Normalize accepts. Sources that build
// the dataset in memory (rather than decoding JSON) start from this.
func NewRoot() *Root {
	return &Root{
		Version:    "1.0",
		Modules:    []WireModule{},
		hasModules: true,
	}
}

func (r *Root) UnmarshalJSON(data []byte) error {
	type alias struct {
		Version string        `json:"version"`
		Modules *[]WireModule `json:"modules"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.Version = a.Version
	if a.Modules != nil {
		r.Modules = *a.Modules
		r.hasModules = true
	}
	return nil
}

type WireModule struct {
	BinaryID   *int           `json:"binary_id"`
	ModuleName *string        `json:"module_name"`
	Status     *string        `json:"status"`
	Statistics WireStatistics `json:"statistics"`
	Functions  []WireFunction `json:"functions"`
	Edges      []WireEdge     `json:"edges"`
}

type WireStatistics struct {
	TotalBlocks      int `json:"total_blocks"`
	NewBlocks        int `json:"new_blocks"`
	NewFunctions     int `json:"new_functions"`
	ChangedFunctions int `json:"changed_functions"`
	OldFunctions     int `json:"old_functions"`
	BlocksInA        int `json:"blocks_in_A"`
	BlocksInB        int `json:"blocks_in_B"`
}

type WireFunction struct {
	FuncID             *int            `json:"func_id"`
	FuncName           string          `json:"func_name"`
	EntryRVA           RVA             `json:"entry_rva"`
	FuncSize           *int            `json:"func_size"`
	Status             *string         `json:"status"`
	IsIndirectlyCalled bool            `json:"is_indirectly_called"`
	Attribution        WireAttribution `json:"attribution"`
	Blocks             []WireBlock     `json:"blocks"`
}

type WireAttribution struct {
	UniqueNewBB         int `json:"unique_new_bb"`
	SharedNewBB         int `json:"shared_new_bb"`
	TotalNewBB          int `json:"total_new_bb"`
	FrontierCount       int `json:"frontier_count"`
	StrongFrontierCount int `json:"strong_frontier_count"`
	WeakFrontierCount   int `json:"weak_frontier_count"`
}

type WireBlock struct {
	BBRVA               *RVA                     `json:"bb_rva"`
	BBSize              *int                     `json:"bb_size"`
	Status              *string                  `json:"status"`
	IsFrontier          bool                     `json:"is_frontier"`
	FrontierType        *string                  `json:"frontier_type"`
	FrontierAttribution *WireFrontierAttribution `json:"frontier_attribution"`
}

type WireFrontierAttribution struct {
	UniqueNewBB int `json:"unique_new_bb"`
	SharedNewBB int `json:"shared_new_bb"`
	TotalNewBB  int `json:"total_new_bb"`
}

type WireEdge struct {
	SrcBBRVA       *RVA   `json:"src_bb_rva"`
	DstBBRVA       *RVA   `json:"dst_bb_rva"`
	EdgeType       string `json:"edge_type"`
	IsFrontierEdge bool   `json:"is_frontier_edge"`
}

// Decode reads the wire JSON. Structural JSON errors surface as
// MALFORMED_DATASET; field-level validation happens in Normalize.
func Decode(r io.Reader) (*Root, error) {
	var root Root
	dec := json.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedDataset, "decode dataset")
	}
	return &root, nil
}

// edgeKindOf folds the analyzer's raw edge_type strings into EdgeKind.
func edgeKindOf(raw string) EdgeKind {
	switch raw {
	case "cfg_fallthrough", "fallthrough":
		return EdgeFallthrough
	case "observed_conditional", "cfg_branch_conditional", "conditional":
		return EdgeConditional
	case "cfg_branch_unconditional", "unconditional":
		return EdgeUnconditional
	case "call_direct", "call":
		return EdgeCall
	case "observed_return_continuation", "return":
		return EdgeReturn
	default:
		return EdgeOther
	}
}
