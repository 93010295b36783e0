package graph

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/typedesc"
)

// NodeID identifies a node. IDs are allocated monotonically by a Store and
// never reused, so a node copied between versions always gets a fresh one.
type NodeID int

// EdgeID identifies an edge within a Store's lineage.
type EdgeID int

// VersionID identifies a committed graph version. The root (empty) version
// is always 0.
type VersionID int

// RootVersion is the id of the empty version every lineage starts from.
const RootVersion VersionID = 0

// Anchor is one connection point: a node and one of its port names.
type Anchor struct {
	Node NodeID
	Port string
}

// Node is an instance of a node-type descriptor. Params holds literal
// values attached to input ports (one ordered list per port); X and Y are
// assigned by the layout stage.
type Node struct {
	ID     NodeID
	Type   *typedesc.Descriptor
	Params map[string][]cty.Value
	X, Y   float64
}

func (n *Node) clone() *Node {
	c := &Node{ID: n.ID, Type: n.Type, X: n.X, Y: n.Y}
	if n.Params != nil {
		c.Params = make(map[string][]cty.Value, len(n.Params))
		for port, values := range n.Params {
			c.Params[port] = append([]cty.Value(nil), values...)
		}
	}
	return c
}

// Edge is a directed, typed connection between two ports.
type Edge struct {
	ID         EdgeID
	Source     NodeID
	SourcePort string
	Target     NodeID
	TargetPort string
}
