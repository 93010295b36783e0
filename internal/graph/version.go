package graph

import "sort"

// Version is an immutable snapshot of nodes and edges, produced by
// committing an edit log. Do not modify the values it returns.
type Version struct {
	id          VersionID
	parent      VersionID
	tag         string
	description string
	nodes       map[NodeID]*Node
	edges       map[EdgeID]*Edge
}

// ID returns the version's identifier.
func (v *Version) ID() VersionID { return v.id }

// Parent returns the id of the version this one was committed on top of.
// The root version is its own parent.
func (v *Version) Parent() VersionID { return v.parent }

// Tag returns the tag attached via Store.SetTag, or "".
func (v *Version) Tag() string { return v.tag }

// Description returns the human-readable change description recorded at
// commit time.
func (v *Version) Description() string { return v.description }

// Node returns the node with the given id, if present.
func (v *Version) Node(id NodeID) (*Node, bool) {
	n, ok := v.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id, if present.
func (v *Version) Edge(id EdgeID) (*Edge, bool) {
	e, ok := v.edges[id]
	return e, ok
}

// Nodes returns all nodes ordered by id.
func (v *Version) Nodes() []*Node {
	nodes := make([]*Node, 0, len(v.nodes))
	for _, n := range v.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns all edges ordered by id.
func (v *Version) Edges() []*Edge {
	edges := make([]*Edge, 0, len(v.edges))
	for _, e := range v.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// NodeCount returns the number of nodes in the snapshot.
func (v *Version) NodeCount() int { return len(v.nodes) }

// EdgeCount returns the number of edges in the snapshot.
func (v *Version) EdgeCount() int { return len(v.edges) }
