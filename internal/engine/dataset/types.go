package dataset

import "fmt"

// Status classifies a module or function relative to the two campaigns.
type Status string

const (
	StatusNew     Status = "new"
	StatusChanged Status = "changed"
	StatusOld     Status = "old"
)

// BlockStatus classifies a basic block's coverage between campaigns A and B.
// "in_A" (coverage present in A but lost in B) is emitted by older analyzer
// versions and accepted for compatibility.
type BlockStatus string

const (
	BlockNew    BlockStatus = "new"
	BlockInBoth BlockStatus = "in_both"
	BlockInA    BlockStatus = "in_A"
)

type FrontierType string

const (
	FrontierNone   FrontierType = ""
	FrontierWeak   FrontierType = "weak"
	FrontierStrong FrontierType = "strong"
)

// EdgeKind is the normalized control-flow/call edge classification. The wire
// format carries the analyzer's raw strings (cfg_fallthrough, call_direct,
// observed_conditional, ...) which are folded into these kinds.
type EdgeKind string

const (
	EdgeFallthrough   EdgeKind = "fallthrough"
	EdgeConditional   EdgeKind = "conditional"
	EdgeUnconditional EdgeKind = "unconditional"
	EdgeCall          EdgeKind = "call"
	EdgeReturn        EdgeKind = "return"
	EdgeOther         EdgeKind = "other"
)

// FunctionID is the composite global function identifier: in-module function
// ids are only unique per module, so cross-module lookups key on both.
type FunctionID struct {
	Module int
	Func   int
}

func (id FunctionID) String() string {
	return fmt.Sprintf("%d:%d", id.Module, id.Func)
}

type Attribution struct {
	UniqueNewBB         int
	SharedNewBB         int
	TotalNewBB          int
	FrontierCount       int
	StrongFrontierCount int
	WeakFrontierCount   int
}

type FrontierAttribution struct {
	UniqueNewBB int
	SharedNewBB int
	TotalNewBB  int
}

type BasicBlock struct {
	RVA          uint64
	Size         int
	Status       BlockStatus
	IsFrontier   bool
	FrontierType FrontierType
	// Attribution is set only for frontier blocks.
	Attribution *FrontierAttribution
}

type Edge struct {
	SrcRVA         uint64
	DstRVA         uint64
	Kind           EdgeKind
	IsFrontierEdge bool
}

type Function struct {
	ID               int
	GID              FunctionID
	Name             string
	EntryRVA         uint64
	Size             int
	Status           Status
	IndirectlyCalled bool
	Attribution      Attribution
	Blocks           []*BasicBlock

	// Index is the declaration position within the owning module, used as
	// the arena index for graph traversal and as the deterministic tie-break.
	Index int
}

type ModuleStatistics struct {
	TotalBlocks      int
	NewBlocks        int
	NewFunctions     int
	ChangedFunctions int
	OldFunctions     int
	BlocksInA        int
	BlocksInB        int
}

type Module struct {
	ID        int
	Name      string
	Status    Status
	Size      int
	Stats     ModuleStatistics
	Functions []*Function
	Edges     []Edge

	blockOwner map[uint64]*Function
}

// OwnerOf resolves a basic-block address to its owning function within this
// module's address space.
func (m *Module) OwnerOf(rva uint64) (*Function, bool) {
	f, ok := m.blockOwner[rva]
	return f, ok
}

func (m *Module) Function(id int) (*Function, bool) {
	for _, f := range m.Functions {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Dataset is the fully indexed, immutable result of one load. All derived
// structures (graphs, buckets, selections) are built alongside it and never
// mutate it.
type Dataset struct {
	Modules []*Module

	// OrphanEdges counts dropped edges whose endpoints did not resolve to a
	// known block. Diagnostic only.
	OrphanEdges int

	moduleByID map[int]*Module
	funcByGID  map[FunctionID]*Function
}

func (d *Dataset) Module(id int) (*Module, bool) {
	m, ok := d.moduleByID[id]
	return m, ok
}

func (d *Dataset) FunctionByGID(gid FunctionID) (*Function, bool) {
	f, ok := d.funcByGID[gid]
	return f, ok
}

func (d *Dataset) FunctionCount() int {
	return len(d.funcByGID)
}

func (d *Dataset) BlockCount() int {
	n := 0
	for _, m := range d.Modules {
		for _, f := range m.Functions {
			n += len(f.Blocks)
		}
	}
	return n
}
