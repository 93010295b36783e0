// Package template models the reusable subgraphs that recipes are built
// from: a read-only node/edge set where boundary markers are classified by
// a tagged role. An input boundary carries the logical parameter name that
// recipes bind; the single output boundary designates the value the
// template produces. Splicing copies a template's interior into a working
// graph; templates themselves are never owned by a graph.
//
// Templates are loaded from HCL files or registered programmatically under
// an (owner, tag) pair.
package template
