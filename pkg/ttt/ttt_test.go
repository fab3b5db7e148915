package ttt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/ttt"
)

type fakeAdjacency struct {
	types     map[int64]string
	neighbors map[int64][]int64
}

func (a fakeAdjacency) NodeType(id int64) (string, bool) {
	t, ok := a.types[id]

	return t, ok
}

func (a fakeAdjacency) Neighbors(id int64, _ string) []int64 {
	return a.neighbors[id]
}

type fakeAnalysis struct {
	sequences map[string][]graphmodel.VisitSequence
}

func (a fakeAnalysis) SequencesFor(nodeType string) ([]graphmodel.VisitSequence, bool) {
	seqs, ok := a.sequences[nodeType]

	return seqs, ok
}

func defaultOpts() ttt.Options {
	return ttt.Options{TargetNodeCount: 1000, AsyncVisitSpawnsParallel: true, VisitInsertionBatch: true}
}

// S1 — single node, no visits: TTT is root plus one leaf at end.
func TestBuild_S1_SingleNodeNoVisits(t *testing.T) {
	t.Parallel()

	adj := fakeAdjacency{types: map[int64]string{0: "A"}}
	analysis := fakeAnalysis{sequences: map[string][]graphmodel.VisitSequence{"A": {{}}}}

	tree := ttt.Build(0, adj, analysis, defaultOpts())

	root := tree.Nodes[tree.Root]
	assert.Equal(t, int64(0), root.NodeID)
	require.Len(t, root.ConditionalChildren, 1)

	leaf := tree.Nodes[root.ConditionalChildren[0]]
	assert.Equal(t, ttt.EndMarker, leaf.NodeID)
	assert.Empty(t, leaf.ConditionalChildren)
}

// S2 — two nodes on one edge, one sync visit with no edge filter and index 0.
func TestBuild_S2_TwoNodesOneVisit(t *testing.T) {
	t.Parallel()

	adj := fakeAdjacency{
		types:     map[int64]string{0: "A", 1: "A"},
		neighbors: map[int64][]int64{0: {1}},
	}
	analysis := fakeAnalysis{
		sequences: map[string][]graphmodel.VisitSequence{
			"A": {{{EdgeType: "", Index: 0}}},
		},
	}

	tree := ttt.Build(0, adj, analysis, defaultOpts())

	root := tree.Nodes[tree.Root]
	assert.Equal(t, int64(0), root.NodeID)
	require.Len(t, root.ConditionalChildren, 1)

	child := tree.Nodes[root.ConditionalChildren[0]]
	assert.Equal(t, int64(1), child.NodeID)
	require.Len(t, child.ConditionalChildren, 1)

	leaf := tree.Nodes[child.ConditionalChildren[0]]
	assert.Equal(t, ttt.EndMarker, leaf.NodeID)
}

func TestBuild_AsyncVisit_SpawnsParallelChildren(t *testing.T) {
	t.Parallel()

	adj := fakeAdjacency{
		types:     map[int64]string{0: "A", 1: "A", 2: "A"},
		neighbors: map[int64][]int64{0: {1, 2}},
	}
	analysis := fakeAnalysis{
		sequences: map[string][]graphmodel.VisitSequence{
			"A": {{{EdgeType: "", Async: true}}},
		},
	}

	tree := ttt.Build(0, adj, analysis, defaultOpts())

	root := tree.Nodes[tree.Root]
	require.Len(t, root.ParallelChildren, 2)

	var parallelIDs []int64
	for _, idx := range root.ParallelChildren {
		parallelIDs = append(parallelIDs, tree.Nodes[idx].NodeID)
	}

	assert.ElementsMatch(t, []int64{1, 2}, parallelIDs)
}

func TestBuild_UnknownNodeType_IsImmediateTerminus(t *testing.T) {
	t.Parallel()

	adj := fakeAdjacency{types: map[int64]string{0: "A"}}
	analysis := fakeAnalysis{sequences: map[string][]graphmodel.VisitSequence{}}

	tree := ttt.Build(0, adj, analysis, defaultOpts())

	root := tree.Nodes[tree.Root]
	assert.Empty(t, root.ConditionalChildren)
	assert.Empty(t, root.ParallelChildren)
}

func TestBuild_RespectsTargetNodeCount(t *testing.T) {
	t.Parallel()

	adj := fakeAdjacency{
		types:     map[int64]string{0: "A", 1: "A"},
		neighbors: map[int64][]int64{0: {1}, 1: {0}},
	}
	analysis := fakeAnalysis{
		sequences: map[string][]graphmodel.VisitSequence{
			"A": {{{EdgeType: "", Index: 0}}},
		},
	}

	opts := defaultOpts()
	opts.TargetNodeCount = 5

	tree := ttt.Build(0, adj, analysis, opts)
	assert.LessOrEqual(t, len(tree.Nodes), 6) // bounded expansion; loop never runs unbounded.
}
