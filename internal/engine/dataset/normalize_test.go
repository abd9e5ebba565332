package dataset

import (
	"strings"
	"testing"

	"frontier/internal/core/errors"
)

const minimalDataset = `{
  "version": "1.0",
  "modules": [
    {
      "binary_id": 1,
      "module_name": "target.dll",
      "status": "changed",
      "statistics": {"total_blocks": 3, "new_blocks": 2, "new_functions": 1, "changed_functions": 1, "old_functions": 0, "blocks_in_A": 1, "blocks_in_B": 3},
      "functions": [
        {
          "func_id": 10,
          "func_name": "parse_header",
          "entry_rva": "0x1000",
          "func_size": 64,
          "status": "changed",
          "attribution": {"unique_new_bb": 1, "shared_new_bb": 0, "total_new_bb": 1, "frontier_count": 1, "strong_frontier_count": 1, "weak_frontier_count": 0},
          "blocks": [
            {"bb_rva": "0x1000", "bb_size": 16, "status": "in_both"},
            {"bb_rva": 4112, "bb_size": 16, "status": "new", "is_frontier": true, "frontier_type": "strong_frontier", "frontier_attribution": {"unique_new_bb": 1, "shared_new_bb": 0, "total_new_bb": 1}}
          ]
        },
        {
          "func_id": 11,
          "func_name": "parse_body",
          "entry_rva": "0x2000",
          "func_size": 32,
          "status": "new",
          "attribution": {"unique_new_bb": 1, "shared_new_bb": 0, "total_new_bb": 1, "frontier_count": 0, "strong_frontier_count": 0, "weak_frontier_count": 0},
          "blocks": [
            {"bb_rva": "0x2000", "bb_size": 8, "status": "new"}
          ]
        }
      ],
      "edges": [
        {"src_bb_rva": "0x1010", "dst_bb_rva": "0x2000", "edge_type": "call_direct"},
        {"src_bb_rva": "0x1000", "dst_bb_rva": "0x1010", "edge_type": "cfg_fallthrough"},
        {"src_bb_rva": "0x9999", "dst_bb_rva": "0x2000", "edge_type": "call_direct"}
      ]
    }
  ]
}`

func decodeAndNormalize(t *testing.T, payload string) (*Dataset, error) {
	t.Helper()
	root, err := Decode(strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return Normalize(root)
}

func TestNormalizeMinimalDataset(t *testing.T) {
	ds, err := decodeAndNormalize(t, minimalDataset)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	mod, ok := ds.Module(1)
	if !ok {
		t.Fatal("module 1 not indexed")
	}
	if mod.Name != "target.dll" || mod.Status != StatusChanged {
		t.Errorf("unexpected module: %+v", mod)
	}
	if len(mod.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(mod.Functions))
	}

	fn, ok := ds.FunctionByGID(FunctionID{Module: 1, Func: 10})
	if !ok {
		t.Fatal("function 1:10 not indexed")
	}
	if fn.EntryRVA != 0x1000 {
		t.Errorf("hex entry_rva not parsed, got %#x", fn.EntryRVA)
	}
	if fn.Blocks[1].RVA != 0x1010 {
		t.Errorf("numeric bb_rva not parsed, got %#x", fn.Blocks[1].RVA)
	}
	if fn.Blocks[1].FrontierType != FrontierStrong {
		t.Errorf("expected strong frontier, got %q", fn.Blocks[1].FrontierType)
	}
	if fn.Blocks[1].Attribution == nil || fn.Blocks[1].Attribution.TotalNewBB != 1 {
		t.Errorf("frontier attribution not carried: %+v", fn.Blocks[1].Attribution)
	}

	// One edge references an unknown source block and must be dropped.
	if ds.OrphanEdges != 1 {
		t.Errorf("expected 1 orphan edge, got %d", ds.OrphanEdges)
	}
	if len(mod.Edges) != 2 {
		t.Errorf("expected 2 surviving edges, got %d", len(mod.Edges))
	}
	if mod.Edges[0].Kind != EdgeCall {
		t.Errorf("call_direct not folded to call, got %q", mod.Edges[0].Kind)
	}

	owner, ok := mod.OwnerOf(0x2000)
	if !ok || owner.ID != 11 {
		t.Errorf("block owner lookup failed: %v %v", owner, ok)
	}
}

func TestNormalizeMissingModulesKey(t *testing.T) {
	_, err := decodeAndNormalize(t, `{"version": "1.0"}`)
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET, got %v", err)
	}
}

func TestNormalizeEmptyModulesIsValid(t *testing.T) {
	ds, err := decodeAndNormalize(t, `{"version": "1.0", "modules": []}`)
	if err != nil {
		t.Fatalf("empty module list must be valid: %v", err)
	}
	if len(ds.Modules) != 0 || ds.FunctionCount() != 0 {
		t.Errorf("expected empty dataset, got %+v", ds)
	}
}

func TestNormalizeMissingRequiredField(t *testing.T) {
	payload := `{"modules": [{"binary_id": 1, "status": "old"}]}`
	_, err := decodeAndNormalize(t, payload)
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET for missing module_name, got %v", err)
	}
}

func TestNormalizeMissingBlockSize(t *testing.T) {
	payload := `{"modules": [{"binary_id": 1, "module_name": "m", "status": "old", "functions": [
		{"func_id": 1, "func_name": "f", "entry_rva": 0, "func_size": 1, "status": "old",
		 "blocks": [{"bb_rva": 16, "status": "in_both"}]}
	]}]}`
	_, err := decodeAndNormalize(t, payload)
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET for missing bb_size, got %v", err)
	}
}

func TestNormalizeDuplicateModuleID(t *testing.T) {
	payload := `{"modules": [
		{"binary_id": 7, "module_name": "a", "status": "old"},
		{"binary_id": 7, "module_name": "b", "status": "old"}
	]}`
	_, err := decodeAndNormalize(t, payload)
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET for duplicate id, got %v", err)
	}
}

func TestNormalizeUnknownStatus(t *testing.T) {
	payload := `{"modules": [{"binary_id": 1, "module_name": "m", "status": "fresh"}]}`
	_, err := decodeAndNormalize(t, payload)
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET for unknown status, got %v", err)
	}
}

func TestNormalizeFrontierWithoutAttribution(t *testing.T) {
	payload := `{"modules": [{"binary_id": 1, "module_name": "m", "status": "changed", "functions": [
		{"func_id": 1, "func_name": "f", "entry_rva": 0, "func_size": 1, "status": "changed",
		 "blocks": [{"bb_rva": 16, "bb_size": 4, "status": "new", "is_frontier": true, "frontier_type": "weak_frontier"}]}
	]}]}`
	ds, err := decodeAndNormalize(t, payload)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	fn, _ := ds.FunctionByGID(FunctionID{Module: 1, Func: 1})
	b := fn.Blocks[0]
	if b.FrontierType != FrontierWeak {
		t.Errorf("expected weak frontier, got %q", b.FrontierType)
	}
	if b.Attribution == nil || b.Attribution.TotalNewBB != 0 {
		t.Errorf("frontier block without wire attribution must default to zeroes, got %+v", b.Attribution)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not json"))
	if !errors.IsCode(err, errors.CodeMalformedDataset) {
		t.Fatalf("expected MALFORMED_DATASET, got %v", err)
	}
}

func TestRVAUnmarshalRejectsNull(t *testing.T) {
	var r RVA
	if err := r.UnmarshalJSON([]byte("null")); err == nil {
		t.Fatal("expected error for null rva")
	}
	if err := r.UnmarshalJSON([]byte(`"0xfff"`)); err != nil {
		t.Fatalf("hex rva failed: %v", err)
	}
	if r != 0xfff {
		t.Errorf("expected 0xfff, got %#x", uint64(r))
	}
}

func TestParseStatusAcceptsUnchangedAlias(t *testing.T) {
	s, ok := parseStatus("unchanged")
	if !ok || s != StatusOld {
		t.Errorf(`"unchanged" must map to old, got %q %v`, s, ok)
	}
}
