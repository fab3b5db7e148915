package graphmodel

import (
	"fmt"
	"sort"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
)

// StaticContext is the canonical indexed view of a loaded graph: every
// node and edge, plus adjacency as a labeled directed multigraph. It
// plays the role toposort.Graph plays for a plain DAG, generalized with
// edge-type labels and parallel edges, since the property graph here is
// neither acyclic nor simple.
type StaticContext struct {
	nodes      []NodeArchetype
	nodeIndex  map[int64]int
	edges      []EdgeArchetype
	outgoing   map[int64][]int // node id -> indices into edges, ascending edge-archetype-id order.
	startNodes []int64
}

// Build indexes a GraphInstance's nodes and edges. Edges referencing an
// unknown node are rejected with a LookupError-kind error, since every
// edge's endpoints must be valid node handles (spec invariant).
func Build(instance GraphInstance) (*StaticContext, error) {
	ctx := &StaticContext{
		nodeIndex: make(map[int64]int),
		outgoing:  make(map[int64][]int),
	}

	for _, n := range instance.Nodes() {
		if n.TypeName == "" {
			return nil, corepiperr.New(corepiperr.KindLookup, fmt.Sprintf("node %d: empty type name", n.ID))
		}

		ctx.nodeIndex[n.ID] = len(ctx.nodes)
		ctx.nodes = append(ctx.nodes, n)
	}

	edges := append([]EdgeArchetype(nil), instance.Edges()...)
	// Deterministic ascending edge-archetype-id ordering: edges carry no
	// explicit id, so order by (source, target, type) as their stable
	// surrogate key.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}

		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}

		return edges[i].TypeName < edges[j].TypeName
	})

	for idx, e := range edges {
		if _, ok := ctx.nodeIndex[e.Source]; !ok {
			return nil, corepiperr.New(corepiperr.KindLookup, fmt.Sprintf("edge references unknown source node %d", e.Source))
		}

		if _, ok := ctx.nodeIndex[e.Target]; !ok {
			return nil, corepiperr.New(corepiperr.KindLookup, fmt.Sprintf("edge references unknown target node %d", e.Target))
		}

		ctx.edges = append(ctx.edges, e)
		ctx.outgoing[e.Source] = append(ctx.outgoing[e.Source], idx)
	}

	ctx.startNodes = append(ctx.startNodes, instance.StartNodes()...)

	return ctx, nil
}

// Node looks up a node by id.
func (c *StaticContext) Node(id int64) (NodeArchetype, bool) {
	idx, ok := c.nodeIndex[id]
	if !ok {
		return NodeArchetype{}, false
	}

	return c.nodes[idx], true
}

// NodeType returns a node's type name.
func (c *StaticContext) NodeType(id int64) (string, bool) {
	n, ok := c.Node(id)
	if !ok {
		return "", false
	}

	return n.TypeName, true
}

// Neighbors returns the deterministic, ascending-edge-order list of
// target node ids reachable from id via an edge whose type equals
// edgeType, or every neighbor when edgeType is "".
func (c *StaticContext) Neighbors(id int64, edgeType string) []int64 {
	var out []int64

	for _, edgeIdx := range c.outgoing[id] {
		e := c.edges[edgeIdx]
		if edgeType == "" || e.TypeName == edgeType {
			out = append(out, e.Target)
		}
	}

	return out
}

// OutgoingEdges returns every edge with the given source, in
// deterministic ascending order.
func (c *StaticContext) OutgoingEdges(id int64) []EdgeArchetype {
	var out []EdgeArchetype
	for _, edgeIdx := range c.outgoing[id] {
		out = append(out, c.edges[edgeIdx])
	}

	return out
}

// NodeCount returns the number of distinct nodes.
func (c *StaticContext) NodeCount() int {
	return len(c.nodes)
}

// AllNodeIDs returns every node id in ascending insertion order.
func (c *StaticContext) AllNodeIDs() []int64 {
	ids := make([]int64, len(c.nodes))
	for i, n := range c.nodes {
		ids[i] = n.ID
	}

	return ids
}

// StartNodes returns the graph's configured starting nodes.
func (c *StaticContext) StartNodes() []int64 {
	return c.startNodes
}

// KnownEdgeTypes returns the set of edge type names present in the graph.
func (c *StaticContext) KnownEdgeTypes() map[string]bool {
	types := make(map[string]bool)
	for _, e := range c.edges {
		types[e.TypeName] = true
	}

	return types
}
