package vars

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

// Builder assembles a variable's template node by node. It enforces the
// variable contract while building: every structural step is type checked
// against the registry, and the output port must be selected exactly once
// before Build.
type Builder struct {
	reg       *typedesc.Registry
	valueType cty.Type

	nodes  []*template.Node
	descs  map[string]*typedesc.Descriptor
	edges  []*template.Edge
	output *template.Edge
}

// NodeHandle refers to one node staged in a Builder.
type NodeHandle struct {
	b    *Builder
	key  string
	desc *typedesc.Descriptor
}

// NewBuilder starts a variable template producing a value of the given
// type. A dynamic value type is allowed and skips the final output check.
func NewBuilder(reg *typedesc.Registry, valueType cty.Type) *Builder {
	return &Builder{
		reg:       reg,
		valueType: valueType,
		descs:     make(map[string]*typedesc.Descriptor),
	}
}

// AddNode stages a node of the referenced type.
func (b *Builder) AddNode(typeRef any) (*NodeHandle, error) {
	desc, err := b.reg.Resolve(typeRef)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("n%d", len(b.nodes))
	b.nodes = append(b.nodes, &template.Node{
		Key:  key,
		Role: template.RoleInterior,
		Type: desc,
	})
	b.descs[key] = desc
	return &NodeHandle{b: b, key: key, desc: desc}, nil
}

// SetParam attaches literal values to one of the node's input ports.
func (h *NodeHandle) SetParam(port string, values ...cty.Value) error {
	p, err := h.desc.Input(port)
	if err != nil {
		return err
	}
	for _, v := range values {
		if !typedesc.AssignableTo(v.Type(), p.Type) {
			return fmt.Errorf("%s.%s: value of type %s not assignable to %s",
				h.desc, port, v.Type().FriendlyName(), p.Type.FriendlyName())
		}
	}
	n, _ := h.b.node(h.key)
	if n.Params == nil {
		n.Params = make(map[string][]cty.Value)
	}
	n.Params[port] = append([]cty.Value(nil), values...)
	return nil
}

// Connect adds an edge from one of this node's output ports to an input
// port of another staged node.
func (h *NodeHandle) Connect(port string, target *NodeHandle, targetPort string) error {
	out, err := h.desc.Output(port)
	if err != nil {
		return err
	}
	in, err := target.desc.Input(targetPort)
	if err != nil {
		return err
	}
	if !typedesc.AssignableTo(out.Type, in.Type) {
		return fmt.Errorf("%s.%s (%s) not assignable to %s.%s (%s)",
			h.desc, port, out.Type.FriendlyName(),
			target.desc, targetPort, in.Type.FriendlyName())
	}
	h.b.edges = append(h.b.edges, &template.Edge{
		Source: h.key, SourcePort: port,
		Target: target.key, TargetPort: targetPort,
	})
	return nil
}

// SelectOutput designates the port the variable's value is read from. It
// must be called exactly once, and the port's type must be assignable to
// the builder's declared value type.
func (b *Builder) SelectOutput(h *NodeHandle, port string) error {
	if b.output != nil {
		return fmt.Errorf("output port already selected")
	}
	out, err := h.desc.Output(port)
	if err != nil {
		return err
	}
	if b.valueType != cty.NilType && !typedesc.AssignableTo(out.Type, b.valueType) {
		return fmt.Errorf("output %s.%s (%s) not assignable to variable type %s",
			h.desc, port, out.Type.FriendlyName(), b.valueType.FriendlyName())
	}
	b.output = &template.Edge{
		Source: h.key, SourcePort: port,
		Target: "output", TargetPort: template.BoundaryPort,
	}
	return nil
}

// Build seals the template under the given variable name.
func (b *Builder) Build(name string) (*template.Template, error) {
	if b.output == nil {
		return nil, fmt.Errorf("variable %q: no output port selected", name)
	}
	typ := b.valueType
	if typ == cty.NilType {
		typ = cty.DynamicPseudoType
	}
	t := &template.Template{
		Owner: "var",
		Name:  name,
		Nodes: append(append([]*template.Node(nil), b.nodes...), &template.Node{
			Key:       "output",
			Role:      template.RoleOutput,
			ValueType: typ,
		}),
		Edges: append(append([]*template.Edge(nil), b.edges...), b.output),
	}
	return t, nil
}

func (b *Builder) node(key string) (*template.Node, bool) {
	for _, n := range b.nodes {
		if n.Key == key {
			return n, true
		}
	}
	return nil, false
}
