package orchestrator

import (
	"sort"

	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/memlayout"
	"github.com/pimwalk/corepipe/pkg/runner"
	"github.com/pimwalk/corepipe/pkg/taskmgr"
	"github.com/pimwalk/corepipe/pkg/ttt"
)

// sequenceAnalysis adapts VisitAnalyzer's output map to ttt.Analysis.
type sequenceAnalysis map[string][]graphmodel.VisitSequence

func (s sequenceAnalysis) SequencesFor(nodeType string) ([]graphmodel.VisitSequence, bool) {
	seqs, ok := s[nodeType]

	return seqs, ok
}

// concretePath walks a TTT's conditional-children spine, taking the
// first child at each branch, to produce one concrete node trace a
// runtime walker can execute. Parallel children spawn separate
// sub-walkers in a full async implementation; this orchestrator treats
// the conditional spine as the walker's own trace and leaves
// parallel-child traces unexercised at runtime, since WalkerRunner
// (spec §4.5) models one sequential walker at a time.
func concretePath(tree *ttt.Tree) []int64 {
	var path []int64

	idx := tree.Root

	for {
		node := tree.Nodes[idx]
		if node.NodeID == ttt.EndMarker {
			break
		}

		path = append(path, node.NodeID)

		if len(node.ConditionalChildren) == 0 {
			break
		}

		idx = node.ConditionalChildren[0]
	}

	return path
}

// mappingFunc adapts a plain map to runner.Mapping.
type mappingFunc map[int64]int

func (m mappingFunc) DPUOf(nodeID int64) (int, bool) {
	dpu, ok := m[nodeID]

	return dpu, ok
}

// buildWalkers turns each walker trace into a registered runner.Walker
// whose Next anchors are plain node references (no edge filtering — the
// trace was already resolved by TTTBuilder).
func buildWalkers(traces map[int64][]int64) []*runner.Walker {
	ids := make([]int64, 0, len(traces))
	for id := range traces {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	walkers := make([]*runner.Walker, 0, len(ids))

	for _, id := range ids {
		trace := traces[id]
		if len(trace) == 0 {
			continue
		}

		anchors := make([]runner.Anchor, len(trace))
		for i, nodeID := range trace {
			anchors[i] = runner.Anchor{NodeID: nodeID}
		}

		walkers = append(walkers, &runner.Walker{ID: id, Next: anchors})
	}

	return walkers
}

type traceSegment struct {
	dpu   int
	nodes []int64
}

// segmentTrace splits a walker's full trace into maximal runs that
// share one DPU, matching the boundaries WalkerRunner actually stopped
// at (spec §4.5/§4.6): each run becomes one Task, dependent on the
// Task for the run before it.
func segmentTrace(trace []int64, mapping map[int64]int) []traceSegment {
	var segments []traceSegment

	for _, nodeID := range trace {
		dpu, ok := mapping[nodeID]
		if !ok {
			continue
		}

		if len(segments) == 0 || segments[len(segments)-1].dpu != dpu {
			segments = append(segments, traceSegment{dpu: dpu})
		}

		last := &segments[len(segments)-1]
		last.nodes = append(last.nodes, nodeID)
	}

	return segments
}

// buildMemoryLayout lays out one DPU's round: every node any task in
// the set traced, and one container/walker pair per task.
func buildMemoryLayout(staticCtx *graphmodel.StaticContext, ts *taskmgr.TaskSet, maxDPUThreadNum int, walkerPayload func(int64) []byte) (*memlayout.DPUMemoryCtx, error) {
	seen := make(map[int64]bool)

	var nodes []graphmodel.NodeArchetype

	var walkers []memlayout.WalkerTrace

	for _, task := range ts.Tasks {
		for _, nodeID := range task.Trace {
			if seen[nodeID] {
				continue
			}

			seen[nodeID] = true

			if n, ok := staticCtx.Node(nodeID); ok {
				nodes = append(nodes, n)
			}
		}

		var payload []byte
		if walkerPayload != nil {
			payload = walkerPayload(task.WalkerID)
		}

		walkers = append(walkers, memlayout.WalkerTrace{WalkerID: task.WalkerID, WalkerData: payload, Trace: task.Trace})
	}

	input := memlayout.BuildInput{
		Nodes:           nodes,
		Walkers:         walkers,
		MaxDPUThreadNum: maxDPUThreadNum,
		EdgeCountOf:     func(nodeID int64) int { return len(staticCtx.OutgoingEdges(nodeID)) },
	}

	return memlayout.Build(input)
}

// roundCycles estimates a round's compute cost as the longest single
// task trace in it — the busiest DPU sets the round's wall-clock floor.
func roundCycles(sets []*taskmgr.TaskSet) int {
	longest := 0

	for _, ts := range sets {
		for _, task := range ts.Tasks {
			if len(task.Trace) > longest {
				longest = len(task.Trace)
			}
		}
	}

	return longest
}

// averageWalkerBytes estimates the per-walker container size moved
// across DPU boundaries, for the transfer-time estimate.
func averageWalkerBytes(sets []*taskmgr.TaskSet) int64 {
	total := 0
	count := 0

	for _, ts := range sets {
		for _, task := range ts.Tasks {
			total += len(task.Trace) * 8 // one node-id reference per trace entry.
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return int64(total / count)
}
