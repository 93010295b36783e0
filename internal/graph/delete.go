package graph

import "sort"

// NodeFilter admits nodes into a DeleteLinked expansion. A nil filter
// admits everything.
type NodeFilter func(*Node) bool

// EdgeFilter admits edges into a DeleteLinked expansion. A nil filter
// admits everything.
type EdgeFilter func(*Edge) bool

// Unbounded disables the hop limit of DeleteLinked.
const Unbounded = -1

// DeleteLinked stages the removal of the given seed nodes and of
// everything reachable from them, breadth-first, over the pending view's
// edge adjacency. At each hop, every unvisited incident edge passing
// edgeFilter is considered; its far endpoint joins the removal set when it
// passes nodeFilter. Expansion stops when the frontier empties or maxDepth
// hops have been consumed (0 removes only the seeds; Unbounded removes the
// whole reachable component).
//
// Every edge touching a removed node is deleted as well, even if
// edgeFilter rejected it during traversal, so no dangling edge survives
// the commit. Nodes already staged for deletion are skipped, making the
// routine safe to call on a partially deleted set. Returns the ids
// actually removed.
func (l *Log) DeleteLinked(seeds []NodeID, nodeFilter NodeFilter, edgeFilter EdgeFilter, maxDepth int) map[NodeID]bool {
	if nodeFilter == nil {
		nodeFilter = func(*Node) bool { return true }
	}
	if edgeFilter == nil {
		edgeFilter = func(*Edge) bool { return true }
	}

	// Incidence over the pending view.
	incident := make(map[NodeID][]*Edge)
	for _, e := range l.Edges() {
		incident[e.Source] = append(incident[e.Source], e)
		if e.Target != e.Source {
			incident[e.Target] = append(incident[e.Target], e)
		}
	}

	toDelete := make(map[NodeID]bool)
	var frontier []NodeID
	for _, id := range seeds {
		if _, ok := l.Node(id); !ok {
			continue // already deleted, or never present
		}
		if !toDelete[id] {
			toDelete[id] = true
			frontier = append(frontier, id)
		}
	}

	visited := make(map[EdgeID]bool)
	depth := maxDepth
	for len(frontier) > 0 && depth != 0 {
		var next []NodeID
		for _, id := range frontier {
			for _, e := range incident[id] {
				if !visited[e.ID] && edgeFilter(e) {
					other := e.Source
					if other == id {
						other = e.Target
					}
					if n, ok := l.Node(other); ok && !toDelete[other] && nodeFilter(n) {
						toDelete[other] = true
						next = append(next, other)
					}
				}
				visited[e.ID] = true
			}
		}
		frontier = next
		depth--
	}

	// Remove edges first so the commit never sees a dangling edge.
	staged := make(map[EdgeID]bool)
	for id := range toDelete {
		for _, e := range incident[id] {
			if !staged[e.ID] {
				staged[e.ID] = true
				l.deletedEdges[e.ID] = true
				l.edits = append(l.edits, DeleteEdgeEdit{ID: e.ID})
			}
		}
	}
	for _, n := range l.nodesInOrder(toDelete) {
		l.deletedNodes[n] = true
		l.edits = append(l.edits, DeleteNodeEdit{ID: n})
	}

	return toDelete
}

// nodesInOrder returns the set's ids sorted, keeping the edit log
// deterministic.
func (l *Log) nodesInOrder(set map[NodeID]bool) []NodeID {
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
