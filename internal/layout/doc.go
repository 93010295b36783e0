// Package layout provides the default implementation of the commit-time
// layout stage: a deterministic layered layout that places sources on the
// top row and pushes each node one row below its deepest predecessor.
package layout
