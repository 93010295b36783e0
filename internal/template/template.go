package template

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/typedesc"
)

// Role classifies a template node. Interior nodes are copied verbatim when
// splicing; boundary markers are consumed to produce wiring points.
type Role int

const (
	// RoleInterior nodes become real graph nodes.
	RoleInterior Role = iota
	// RoleInput marks a named input boundary; edges leaving it designate
	// the interior ports a recipe binding must reach.
	RoleInput
	// RoleOutput marks the single output boundary; the edge entering it
	// designates the port the template's value is read from.
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "interior"
	}
}

// BoundaryPort is the port name markers expose on their synthetic edges.
const BoundaryPort = "value"

// Node is one template node. Type (a node-type reference resolved at
// splice time) and Params are meaningful for interior nodes; InputName,
// ValueType, Optional and Constant describe boundary markers.
type Node struct {
	Key       string
	Role      Role
	Type      any
	Params    map[string][]cty.Value
	InputName string
	ValueType cty.Type
	Optional  bool
	Constant  bool
}

// Edge connects two template nodes by key and port name.
type Edge struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}

// Template is a read-only subgraph with named input boundaries and one
// output boundary, plus the recipe-facing port declarations derived from
// (or reconciled with) those boundaries.
type Template struct {
	Owner string
	Name  string
	Nodes []*Node
	Edges []*Edge
	Ports []*typedesc.Port
}

// String returns the canonical "owner:name" reference.
func (t *Template) String() string {
	if t.Owner == "" {
		return t.Name
	}
	return t.Owner + ":" + t.Name
}

// Node returns the template node with the given key.
func (t *Template) Node(key string) (*Node, bool) {
	for _, n := range t.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return nil, false
}

// Port returns the declared recipe-facing port with the given name.
func (t *Template) Port(name string) (*typedesc.Port, error) {
	for _, p := range t.Ports {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no port %q on template %s", typedesc.ErrUnknownPort, name, t)
}

// OutputType returns the declared type of the template's output boundary.
// Variables store their value type here, the way the original records it
// on the output marker.
func (t *Template) OutputType() (cty.Type, bool) {
	for _, n := range t.Nodes {
		if n.Role == RoleOutput {
			if n.ValueType == cty.NilType {
				return cty.DynamicPseudoType, true
			}
			return n.ValueType, true
		}
	}
	return cty.NilType, false
}
