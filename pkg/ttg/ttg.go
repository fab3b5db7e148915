// Package ttg implements TTGCondenser (C7): a BFS over a Temporal Trace
// Tree, carrying a monotonic step counter, that folds the tree into a
// labeled directed multigraph sharing the tree's node-id set.
package ttg

import "github.com/pimwalk/corepipe/pkg/ttt"

// Edge is one labeled TTG multi-edge.
type Edge struct {
	From       int64
	To         int64
	IsParallel bool
	Timestamp  int
}

// Graph is the condensed Temporal Trace Graph: a node-id set plus the
// labeled edges between them.
type Graph struct {
	nodeIDs  map[int64]bool
	edges    []Edge
	outgoing map[int64][]int // node id -> indices into edges.
}

// NodeIDs returns every node id that appears in the graph.
func (g *Graph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.nodeIDs))
	for id := range g.nodeIDs {
		ids = append(ids, id)
	}

	return ids
}

// Edges returns every labeled edge.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// OutgoingNonParallel returns the non-parallel out-edges from id, in the
// order TTGCondenser discovered them (BFS step order) — used by the
// partitioner's DFSRoundRobin BFS walk, which is restricted to
// non-parallel edges per spec §4.4.
func (g *Graph) OutgoingNonParallel(id int64) []Edge {
	var out []Edge

	for _, idx := range g.outgoing[id] {
		e := g.edges[idx]
		if !e.IsParallel {
			out = append(out, e)
		}
	}

	return out
}

// Condense folds a TTT into a TTG. Condense is deterministic given a
// deterministic tree (i.e. a deterministic adjacency enumeration order
// upstream in TTTBuilder), satisfying the TTGCondenser(TTTBuilder)
// round-trip property in spec §8.
func Condense(tree *ttt.Tree) *Graph {
	g := &Graph{
		nodeIDs:  make(map[int64]bool),
		outgoing: make(map[int64][]int),
	}

	type item struct {
		arenaIdx int
		step     int
	}

	queue := []item{{tree.Root, 0}}
	visited := make(map[int]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if visited[cur.arenaIdx] {
			continue
		}

		visited[cur.arenaIdx] = true
		node := tree.Nodes[cur.arenaIdx]

		if node.NodeID != ttt.EndMarker {
			g.nodeIDs[node.NodeID] = true
		}

		addEdges := func(children []int, parallel bool) {
			for _, childIdx := range children {
				child := tree.Nodes[childIdx]

				if node.NodeID != ttt.EndMarker && child.NodeID != ttt.EndMarker {
					edgeIdx := len(g.edges)
					g.edges = append(g.edges, Edge{From: node.NodeID, To: child.NodeID, IsParallel: parallel, Timestamp: cur.step})
					g.outgoing[node.NodeID] = append(g.outgoing[node.NodeID], edgeIdx)
				}

				queue = append(queue, item{childIdx, cur.step + 1})
			}
		}

		addEdges(node.ConditionalChildren, false)
		addEdges(node.ParallelChildren, true)
	}

	return g
}

// Merge unions several condensed graphs into one, as the orchestrator
// does across every walker type's TTG before handing the result to the
// Partitioner — partitioning must see every walker's potential traffic
// over the shared node set, not just one walker's.
func Merge(graphs ...*Graph) *Graph {
	out := &Graph{
		nodeIDs:  make(map[int64]bool),
		outgoing: make(map[int64][]int),
	}

	for _, g := range graphs {
		if g == nil {
			continue
		}

		for id := range g.nodeIDs {
			out.nodeIDs[id] = true
		}

		for _, e := range g.edges {
			idx := len(out.edges)
			out.edges = append(out.edges, e)
			out.outgoing[e.From] = append(out.outgoing[e.From], idx)
		}
	}

	return out
}
