// Package ttt implements TTTBuilder (C6): BFS-style symbolic expansion
// of a walker's traversal into a Temporal Trace Tree, bounded by a
// configurable target node count.
package ttt

import (
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/mathutil"
)

// EndMarker denotes a TTT node whose location is "end" — a path
// terminus.
const EndMarker int64 = -1

// Node is one arena-indexed TTT tree node.
type Node struct {
	NodeID              int64
	ConditionalChildren []int
	ParallelChildren    []int
}

// Tree is an owned arena of Nodes; index 0 need not be the root — Root
// names the actual root index.
type Tree struct {
	Nodes []Node
	Root  int
}

func (t *Tree) newNode(nodeID int64) int {
	t.Nodes = append(t.Nodes, Node{NodeID: nodeID})

	return len(t.Nodes) - 1
}

// WalkerState is the symbolic execution state of one in-flight walker:
// an ordered pending container and a head location (or EndMarker).
type WalkerState struct {
	Container []int64
	Location  int64
}

// Adjacency is the node-typed, edge-filtered neighbor view TTTBuilder
// expands against — implemented by graphmodel.StaticContext in
// production.
type Adjacency interface {
	NodeType(id int64) (string, bool)
	Neighbors(id int64, edgeType string) []int64
}

// Analysis supplies the VisitSequences VisitAnalyzer produced, keyed by
// firing node type.
type Analysis interface {
	SequencesFor(nodeType string) ([]graphmodel.VisitSequence, bool)
}

// Options configures TTT expansion, including the two open-question
// toggles from spec §9.
type Options struct {
	// TargetNodeCount bounds the number of TTT nodes created (default
	// 100,000 per spec §4.2).
	TargetNodeCount int
	// AsyncVisitSpawnsParallel selects the resolved async-visit
	// semantics: one parallel child per filtered neighbor, with
	// container=[neighbor]. False drops async visits entirely, the
	// other behavior observed in the source and retained as a toggle
	// per spec §9's open question.
	AsyncVisitSpawnsParallel bool
	// VisitInsertionBatch selects batch insertion of a sync visit's
	// filtered neighbors at visit.Index (true) versus inserting them
	// one at a time at successively advancing positions (false), per
	// spec §9's second open question.
	VisitInsertionBatch bool
}

// clampIndex resolves a (possibly negative, from-the-end) insertion
// index against a container of the given length, clamping to [0, length].
func clampIndex(index, length int) int {
	if index < 0 {
		index = length + index
	}

	index = mathutil.Max(index, 0)
	index = mathutil.Min(index, length)

	return index
}

// insertAt splices values into container at position idx.
func insertAt(container []int64, idx int, values []int64) []int64 {
	out := make([]int64, 0, len(container)+len(values))
	out = append(out, container[:idx]...)
	out = append(out, values...)
	out = append(out, container[idx:]...)

	return out
}

type frontierItem struct {
	state    WalkerState
	arenaIdx int
}

// Build expands the walker's traversal from startID into a TTT. A node
// type with no matching visit sequences (analysis lookup miss) is an
// immediate terminus with no children, per spec §4.2.
func Build(startID int64, adj Adjacency, analysis Analysis, opts Options) *Tree {
	tree := &Tree{}
	rootIdx := tree.newNode(startID)
	tree.Root = rootIdx

	queue := []frontierItem{{WalkerState{Location: startID}, rootIdx}}

	for len(queue) > 0 && len(tree.Nodes) < opts.TargetNodeCount {
		item := queue[0]
		queue = queue[1:]

		if item.state.Location == EndMarker {
			continue
		}

		nodeType, ok := adj.NodeType(item.state.Location)
		if !ok {
			continue
		}

		sequences, ok := analysis.SequencesFor(nodeType)
		if !ok || len(sequences) == 0 {
			continue
		}

		for _, seq := range sequences {
			childState, parallelNeighbors := expandSequence(item.state, adj, seq, opts)

			var newLoc int64 = EndMarker
			if len(childState.Container) > 0 {
				newLoc = childState.Container[0]
				childState.Container = childState.Container[1:]
			}

			childState.Location = newLoc

			childArenaIdx := tree.newNode(newLoc)
			tree.Nodes[item.arenaIdx].ConditionalChildren = append(tree.Nodes[item.arenaIdx].ConditionalChildren, childArenaIdx)

			if newLoc != EndMarker {
				queue = append(queue, frontierItem{childState, childArenaIdx})
			}

			for _, neighbor := range parallelNeighbors {
				parallelArenaIdx := tree.newNode(neighbor)
				tree.Nodes[item.arenaIdx].ParallelChildren = append(tree.Nodes[item.arenaIdx].ParallelChildren, parallelArenaIdx)
				queue = append(queue, frontierItem{WalkerState{Location: neighbor}, parallelArenaIdx})
			}
		}
	}

	return tree
}

// expandSequence folds one VisitSequence's sync visits into the
// container and collects the neighbors any async visits would spawn.
func expandSequence(state WalkerState, adj Adjacency, seq graphmodel.VisitSequence, opts Options) (WalkerState, []int64) {
	next := WalkerState{
		Container: append([]int64(nil), state.Container...),
		Location:  state.Location,
	}

	var parallelNeighbors []int64

	for _, visit := range seq {
		neighbors := adj.Neighbors(next.Location, visit.EdgeType)

		if visit.Async {
			if opts.AsyncVisitSpawnsParallel {
				parallelNeighbors = append(parallelNeighbors, neighbors...)
			}

			continue
		}

		idx := clampIndex(visit.Index, len(next.Container))

		if opts.VisitInsertionBatch {
			next.Container = insertAt(next.Container, idx, neighbors)
		} else {
			for i, n := range neighbors {
				next.Container = insertAt(next.Container, idx+i, []int64{n})
			}
		}
	}

	return next, parallelNeighbors
}
