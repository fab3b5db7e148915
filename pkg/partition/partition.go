// Package partition implements Partitioner (C8): assigning node ids to
// DPU ids under per-DPU byte-capacity limits. Three variants are
// supported — DFSRoundRobin (default), Random, and the streaming Fennel
// baseline — all built on the shared NodeDistribution capacity tracker.
//
// Capacity-lookup failure is modeled as an explicit sum-typed Result
// rather than a panic/exception, per spec §9's design note replacing
// "exceptions for control flow" in the source partitioner.
package partition

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/ttg"
)

// Kind selects a partitioner variant; its string values match the
// MAPPING configuration values (spec §6).
type Kind string

const (
	KindDFSRoundRobin Kind = "ROUND"
	KindRandom        Kind = "RANDOM"
	KindFennel        Kind = "FENNEL"
)

// Fennel scoring constants (spec §4.4).
const (
	fennelBeta   = 1.5
	fennelLambda = 1.0
)

// Result is the explicit sum-typed outcome of a partitioning attempt:
// either a complete node-id -> dpu-id mapping, or a failure reason.
type Result struct {
	Mapping map[int64]int
	Err     error
}

// Ok wraps a successful mapping.
func Ok(mapping map[int64]int) Result { return Result{Mapping: mapping} }

// Fail wraps a failure reason.
func Fail(err error) Result { return Result{Err: err} }

// IsOk reports whether the result is a success.
func (r Result) IsOk() bool { return r.Err == nil }

// SizeFunc resolves a node's byte size for capacity accounting.
type SizeFunc func(nodeID int64) int64

// Run executes the selected partitioner variant.
func Run(kind Kind, ctx *graphmodel.StaticContext, graph *ttg.Graph, numDPUs int, capacity int64, sizeFn SizeFunc, rng *rand.Rand) Result {
	switch kind {
	case KindDFSRoundRobin:
		return dfsRoundRobin(ctx, graph, numDPUs, capacity, sizeFn, rng)
	case KindRandom:
		return randomAssign(ctx, numDPUs, capacity, sizeFn, rng)
	case KindFennel:
		return fennel(ctx, numDPUs, capacity, sizeFn, rng)
	default:
		return Fail(corepiperr.New(corepiperr.KindConfiguration, fmt.Sprintf("unknown partitioner kind %q", kind)))
	}
}

func capacityExhausted(nodeID int64) error {
	return corepiperr.New(corepiperr.KindCapacity, fmt.Sprintf("no DPU has free capacity for node %d", nodeID))
}

// dfsRoundRobin implements the default partitioner (spec §4.4): a BFS
// over the TTG restricted to non-parallel edges from each start node,
// assigning a fresh partition each step; nodes the TTG walk never
// touches get a random available partition.
func dfsRoundRobin(ctx *graphmodel.StaticContext, graph *ttg.Graph, numDPUs int, capacity int64, sizeFn SizeFunc, rng *rand.Rand) Result {
	dist := NewNodeDistribution(numDPUs, capacity)
	mapping := make(map[int64]int)
	visited := make(map[int64]bool)
	offset := 0

	assignNext := func(id int64) error {
		size := sizeFn(id)
		avail := dist.AvailablePartitions(size)

		if len(avail) == 0 {
			return capacityExhausted(id)
		}

		dpu := avail[offset%len(avail)]
		offset++
		dist.Assign(dpu, size)
		mapping[id] = dpu

		return nil
	}

	for _, start := range ctx.StartNodes() {
		queue := []int64{start}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			if visited[cur] {
				continue
			}

			visited[cur] = true

			if err := assignNext(cur); err != nil {
				return Fail(err)
			}

			for _, e := range graph.OutgoingNonParallel(cur) {
				if !visited[e.To] {
					queue = append(queue, e.To)
				}
			}
		}
	}

	for _, id := range ctx.AllNodeIDs() {
		if visited[id] {
			continue
		}

		size := sizeFn(id)
		avail := dist.AvailablePartitions(size)

		if len(avail) == 0 {
			return Fail(capacityExhausted(id))
		}

		dpu := avail[rng.Intn(len(avail))]
		dist.Assign(dpu, size)
		mapping[id] = dpu
	}

	return Ok(mapping)
}

// randomAssign gives every node a uniformly random available partition.
func randomAssign(ctx *graphmodel.StaticContext, numDPUs int, capacity int64, sizeFn SizeFunc, rng *rand.Rand) Result {
	dist := NewNodeDistribution(numDPUs, capacity)
	mapping := make(map[int64]int)

	for _, id := range ctx.AllNodeIDs() {
		size := sizeFn(id)
		avail := dist.AvailablePartitions(size)

		if len(avail) == 0 {
			return Fail(capacityExhausted(id))
		}

		dpu := avail[rng.Intn(len(avail))]
		dist.Assign(dpu, size)
		mapping[id] = dpu
	}

	return Ok(mapping)
}

// fennel implements the streaming Fennel baseline (spec §4.4): for each
// node in random order, score each under-capacity partition and pick
// the minimizer.
func fennel(ctx *graphmodel.StaticContext, numDPUs int, capacity int64, sizeFn SizeFunc, rng *rand.Rand) Result {
	dist := NewNodeDistribution(numDPUs, capacity)
	mapping := make(map[int64]int)

	order := append([]int64(nil), ctx.AllNodeIDs()...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	totalNodes := float64(len(order))
	alpha := totalNodes / math.Pow(float64(numDPUs), fennelBeta)

	neighborSet := func(id int64) map[int64]bool {
		set := make(map[int64]bool)
		for _, e := range ctx.OutgoingEdges(id) {
			set[e.Target] = true
		}

		return set
	}

	for _, id := range order {
		size := sizeFn(id)
		avail := dist.AvailablePartitions(size)

		if len(avail) == 0 {
			return Fail(capacityExhausted(id))
		}

		neighbors := neighborSet(id)

		bestDPU := avail[0]
		bestScore := math.Inf(1)

		for _, dpu := range avail {
			neighborCount := 0

			for other, assigned := range mapping {
				if assigned == dpu && neighbors[other] {
					neighborCount++
				}
			}

			score := alpha*math.Pow(float64(dist.Occupancy(dpu)), fennelBeta) - fennelLambda*float64(neighborCount)
			if score < bestScore {
				bestScore = score
				bestDPU = dpu
			}
		}

		dist.Assign(bestDPU, size)
		mapping[id] = bestDPU
	}

	return Ok(mapping)
}

// SortedDPUIDs is a small deterministic-ordering helper used by
// reporting code that needs to iterate a mapping's DPUs in order.
func SortedDPUIDs(mapping map[int64]int) []int {
	seen := make(map[int]bool)

	for _, dpu := range mapping {
		seen[dpu] = true
	}

	out := make([]int, 0, len(seen))
	for dpu := range seen {
		out = append(out, dpu)
	}

	sort.Ints(out)

	return out
}
