// Package graph implements the versioned dataflow graph that recipes
// compile into. A Store holds immutable Versions in a lineage; every
// structural change is expressed as an entry in an append-only edit Log and
// becomes visible only through a single atomic Commit. Nothing mutates a
// committed version in place.
//
// The Log is also where the generic reachability-bounded deletion routine
// lives: DeleteLinked expands from seed nodes over the pending view's edge
// adjacency, subject to node and edge admission filters and a hop limit,
// and stages the removal of the resulting subgraph without leaving
// dangling edges.
package graph
