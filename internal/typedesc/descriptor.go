package typedesc

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	// ErrUnknownType is returned when a type reference does not resolve to a
	// registered descriptor.
	ErrUnknownType = errors.New("unknown node type")

	// ErrUnknownPort is returned when a port name does not exist on a
	// descriptor.
	ErrUnknownPort = errors.New("unknown port")
)

// Class categorizes a descriptor for the compiler's wiring policies. Most
// node types are ClassGeneric; ClassDisplay marks nodes that render output,
// and ClassLocation marks the singleton node that places that output.
type Class int

const (
	ClassGeneric Class = iota
	ClassDisplay
	ClassLocation
)

func (c Class) String() string {
	switch c {
	case ClassDisplay:
		return "display"
	case ClassLocation:
		return "location"
	default:
		return "generic"
	}
}

// Port is one declared input or output port of a node type.
type Port struct {
	Name string
	Type cty.Type
	// Optional marks recipe-facing ports that may be left unbound.
	Optional bool
	// Constant marks ports that accept a literal value instead of a
	// connection.
	Constant bool
}

// Descriptor describes a node type: its identity, version, class, and the
// ports instances of it expose. Descriptors are immutable after
// registration.
type Descriptor struct {
	Owner   string
	Name    string
	Version string
	Class   Class
	Inputs  []*Port
	Outputs []*Port
}

// String returns the canonical "owner:name" reference for the descriptor.
func (d *Descriptor) String() string {
	if d.Owner == "" {
		return d.Name
	}
	return d.Owner + ":" + d.Name
}

// Input returns the declared input port with the given name.
func (d *Descriptor) Input(name string) (*Port, error) {
	for _, p := range d.Inputs {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no input %q on %s", ErrUnknownPort, name, d)
}

// Output returns the declared output port with the given name.
func (d *Descriptor) Output(name string) (*Port, error) {
	for _, p := range d.Outputs {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no output %q on %s", ErrUnknownPort, name, d)
}

// AssignableTo reports whether a value of type src may flow into a port of
// type dst: the types are equal, dst is dynamic, or a safe cty conversion
// from src to dst exists.
func AssignableTo(src, dst cty.Type) bool {
	if dst == cty.DynamicPseudoType || src.Equals(dst) {
		return true
	}
	return convert.GetConversion(src, dst) != nil
}
