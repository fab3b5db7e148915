// Package graphmodel holds the pipeline's core data types — the typed
// property graph (NodeArchetype, EdgeArchetype), the walker program
// (GraphProgram, WalkerDef, AbilityDef, control-flow graphs), and the
// StaticContext that indexes a loaded graph for analysis.
//
// The graph and the program are read-only collaborators supplied by a
// loader the pipeline does not implement; this package only describes
// their shape and the contract external code must satisfy.
package graphmodel

// NodeArchetype is a node in the typed property graph: a stable identity,
// a type name, and an opaque payload whose length is its wire size.
type NodeArchetype struct {
	ID       int64
	TypeName string
	Payload  []byte
}

// SizeBytes returns the node's deterministic wire size.
func (n NodeArchetype) SizeBytes() int {
	return len(n.Payload)
}

// EdgeArchetype is a typed directed edge between two node handles.
type EdgeArchetype struct {
	Source   int64
	Target   int64
	TypeName string
}

// AbilityPhase enumerates the six ordered callback points a WalkerRunner
// fires as a walker arrives at and departs from a node.
type AbilityPhase int

const (
	PhaseWalkerEntry AbilityPhase = iota
	PhaseNodeEntryAny
	PhaseNodeEntryTyped
	PhaseNodeExitTyped
	PhaseNodeExitAny
	PhaseWalkerExit
)

// AbilityPhaseOrder is the fixed firing order for one node visit.
var AbilityPhaseOrder = [...]AbilityPhase{
	PhaseWalkerEntry,
	PhaseNodeEntryAny,
	PhaseNodeEntryTyped,
	PhaseNodeExitTyped,
	PhaseNodeExitAny,
	PhaseWalkerExit,
}

// AbilityDispatcher fires ability callbacks on behalf of a WalkerRunner.
// A true return from Fire means the walker disengaged and execution of
// the current firing must stop immediately.
type AbilityDispatcher interface {
	Fire(phase AbilityPhase, walkerID, nodeID int64, nodeType string) (disengaged bool, err error)
}

// StmtKind distinguishes VisitStmt basic-block entries from everything
// else in an ability's control-flow graph; only VisitStmt affects
// VisitAnalyzer output.
type StmtKind int

const (
	StmtOther StmtKind = iota
	StmtVisit
)

// Stmt is one control-flow-graph basic-block entry. Only Kind ==
// StmtVisit entries carry meaningful EdgeType/Index/Async values.
type Stmt struct {
	Kind     StmtKind
	EdgeType string // "" means no filter: all neighbors match.
	Index    int    // insertion position; negative counts from the end.
	Async    bool
}

// BasicBlock is one node of an ability's control-flow graph.
type BasicBlock struct {
	ID    int
	Stmts []Stmt
	Out   []int // successor basic-block ids; empty means exit block.
}

// CFG is a walker ability's control-flow graph.
type CFG struct {
	Blocks []BasicBlock
	Entry  int
}

// AbilityDef binds a control-flow graph to the node type it fires on.
// A walker may declare more than one AbilityDef for the same node type;
// VisitAnalyzer merges their sequences.
type AbilityDef struct {
	NodeType string
	CFG      CFG
}

// WalkerDef is the static description of one walker type.
type WalkerDef struct {
	TypeName  string
	Abilities []AbilityDef
}

// GraphProgram is the read-only collaborator describing every walker
// type available in a run.
type GraphProgram interface {
	Walkers() []WalkerDef
}

// GraphInstance is the read-only collaborator describing the concrete
// typed property graph a run executes over.
type GraphInstance interface {
	Nodes() []NodeArchetype
	Edges() []EdgeArchetype
	StartNodes() []int64
}

// VisitInfo is one visit effect produced by a walker firing at a node of
// a given type.
type VisitInfo struct {
	FromNodeType string
	WalkerType   string
	EdgeType     string // "" means no filter.
	Async        bool
	Index        int
}

// VisitSequence is the ordered list of visit effects executed in one
// firing of a walker at a node.
type VisitSequence []VisitInfo
