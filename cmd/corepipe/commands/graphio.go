package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pimwalk/corepipe/pkg/graphmodel"
)

// graphFile is the on-disk JSON shape of a run's graph instance and
// walker program. Decoding it is plain data loading, not source
// parsing: corepipe never derives a GraphProgram from source text, only
// from this declarative description (spec §1 non-goals).
type graphFile struct {
	Nodes      []nodeFile   `json:"nodes"`
	Edges      []edgeFile   `json:"edges"`
	StartNodes []int64      `json:"start_nodes"`
	Walkers    []walkerFile `json:"walkers"`
}

type nodeFile struct {
	ID       int64  `json:"id"`
	TypeName string `json:"type"`
	Payload  []byte `json:"payload"`
}

type edgeFile struct {
	Source   int64  `json:"source"`
	Target   int64  `json:"target"`
	TypeName string `json:"type"`
}

type walkerFile struct {
	TypeName  string        `json:"type"`
	Abilities []abilityFile `json:"abilities"`
}

type abilityFile struct {
	NodeType string  `json:"node_type"`
	CFG      cfgFile `json:"cfg"`
}

type cfgFile struct {
	Entry  int         `json:"entry"`
	Blocks []blockFile `json:"blocks"`
}

type blockFile struct {
	ID    int        `json:"id"`
	Stmts []stmtFile `json:"stmts"`
	Out   []int      `json:"out"`
}

type stmtFile struct {
	Kind     string `json:"kind"` // "visit" or "other"
	EdgeType string `json:"edge_type"`
	Index    int    `json:"index"`
	Async    bool   `json:"async"`
}

// staticInstance adapts a decoded graphFile to graphmodel.GraphInstance.
type staticInstance struct {
	nodes      []graphmodel.NodeArchetype
	edges      []graphmodel.EdgeArchetype
	startNodes []int64
}

func (s staticInstance) Nodes() []graphmodel.NodeArchetype { return s.nodes }
func (s staticInstance) Edges() []graphmodel.EdgeArchetype { return s.edges }
func (s staticInstance) StartNodes() []int64               { return s.startNodes }

// staticProgram adapts a decoded graphFile to graphmodel.GraphProgram.
type staticProgram struct {
	walkers []graphmodel.WalkerDef
}

func (s staticProgram) Walkers() []graphmodel.WalkerDef { return s.walkers }

func stmtKindFromFile(k string) graphmodel.StmtKind {
	if k == "visit" {
		return graphmodel.StmtVisit
	}

	return graphmodel.StmtOther
}

// loadGraphFile decodes a JSON graph+program description from path into
// the read-only collaborators the orchestrator expects.
func loadGraphFile(path string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error) {
	data, err := os.ReadFile(path) //nolint:gosec // CLI-provided input path, by design.
	if err != nil {
		return nil, nil, fmt.Errorf("read graph file: %w", err)
	}

	var gf graphFile

	if unmarshalErr := json.Unmarshal(data, &gf); unmarshalErr != nil {
		return nil, nil, fmt.Errorf("parse graph file: %w", unmarshalErr)
	}

	inst := staticInstance{startNodes: gf.StartNodes}
	for _, n := range gf.Nodes {
		inst.nodes = append(inst.nodes, graphmodel.NodeArchetype{ID: n.ID, TypeName: n.TypeName, Payload: n.Payload})
	}

	for _, e := range gf.Edges {
		inst.edges = append(inst.edges, graphmodel.EdgeArchetype{Source: e.Source, Target: e.Target, TypeName: e.TypeName})
	}

	prog := staticProgram{}

	for _, w := range gf.Walkers {
		wd := graphmodel.WalkerDef{TypeName: w.TypeName}

		for _, a := range w.Abilities {
			cfg := graphmodel.CFG{Entry: a.CFG.Entry}

			for _, b := range a.CFG.Blocks {
				bb := graphmodel.BasicBlock{ID: b.ID, Out: b.Out}

				for _, s := range b.Stmts {
					bb.Stmts = append(bb.Stmts, graphmodel.Stmt{
						Kind: stmtKindFromFile(s.Kind), EdgeType: s.EdgeType, Index: s.Index, Async: s.Async,
					})
				}

				cfg.Blocks = append(cfg.Blocks, bb)
			}

			wd.Abilities = append(wd.Abilities, graphmodel.AbilityDef{NodeType: a.NodeType, CFG: cfg})
		}

		prog.walkers = append(prog.walkers, wd)
	}

	return inst, prog, nil
}
