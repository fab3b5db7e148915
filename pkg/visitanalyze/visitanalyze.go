// Package visitanalyze implements VisitAnalyzer (C5): depth-first path
// enumeration over a walker ability's control-flow graph, producing the
// VisitSequences TTTBuilder later expands against the physical graph.
package visitanalyze

import (
	"fmt"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
)

// Analyze enumerates every acyclic path through each of a walker's
// ability control-flow graphs, keyed by the node type the ability fires
// on. A path re-entering a basic block it already visited terminates
// there rather than looping (no loop re-entry in one firing). Fails
// with a KindLookup error if any VisitStmt's edge-type filter names an
// edge type absent from knownEdgeTypes.
func Analyze(walker graphmodel.WalkerDef, knownEdgeTypes map[string]bool) (map[string][]graphmodel.VisitSequence, error) {
	result := make(map[string][]graphmodel.VisitSequence)

	for _, ability := range walker.Abilities {
		sequences, err := enumerate(ability.CFG)
		if err != nil {
			return nil, err
		}

		visitSeqs := make([]graphmodel.VisitSequence, 0, len(sequences))

		for _, path := range sequences {
			seq := make(graphmodel.VisitSequence, 0, len(path))

			for _, stmt := range path {
				if stmt.EdgeType != "" && !knownEdgeTypes[stmt.EdgeType] {
					return nil, corepiperr.New(corepiperr.KindLookup,
						fmt.Sprintf("walker %q ability on %q: unknown edge type %q", walker.TypeName, ability.NodeType, stmt.EdgeType))
				}

				seq = append(seq, graphmodel.VisitInfo{
					FromNodeType: ability.NodeType,
					WalkerType:   walker.TypeName,
					EdgeType:     stmt.EdgeType,
					Async:        stmt.Async,
					Index:        stmt.Index,
				})
			}

			visitSeqs = append(visitSeqs, seq)
		}

		result[ability.NodeType] = append(result[ability.NodeType], visitSeqs...)
	}

	return result, nil
}

// enumerate performs the depth-first path enumeration over one CFG,
// projecting each path onto its VisitStmt entries.
func enumerate(cfg graphmodel.CFG) ([][]graphmodel.Stmt, error) {
	if len(cfg.Blocks) == 0 {
		return [][]graphmodel.Stmt{{}}, nil
	}

	blocksByID := make(map[int]graphmodel.BasicBlock, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		blocksByID[b.ID] = b
	}

	var sequences [][]graphmodel.Stmt

	visited := make(map[int]bool)

	var acc []graphmodel.Stmt

	var walk func(blockID int)

	walk = func(blockID int) {
		if visited[blockID] {
			sequences = append(sequences, append([]graphmodel.Stmt(nil), acc...))

			return
		}

		block, ok := blocksByID[blockID]
		if !ok {
			sequences = append(sequences, append([]graphmodel.Stmt(nil), acc...))

			return
		}

		visited[blockID] = true

		added := 0

		for _, stmt := range block.Stmts {
			if stmt.Kind == graphmodel.StmtVisit {
				acc = append(acc, stmt)
				added++
			}
		}

		switch len(block.Out) {
		case 0:
			sequences = append(sequences, append([]graphmodel.Stmt(nil), acc...))
		default:
			for _, next := range block.Out {
				walk(next)
			}
		}

		acc = acc[:len(acc)-added]
		visited[blockID] = false
	}

	walk(cfg.Entry)

	return sequences, nil
}
