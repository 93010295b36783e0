// Package recipe models the declarative description of a plot: which plot
// template to instantiate and, per port, the ordered list of variable and
// constant bindings to feed it.
package recipe

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/template"
)

// Kind discriminates the two binding forms.
type Kind int

const (
	// KindVariable binds a named variable's value to a port.
	KindVariable Kind = iota
	// KindConstant binds a literal value to a port.
	KindConstant
)

func (k Kind) String() string {
	if k == KindConstant {
		return "constant"
	}
	return "variable"
}

// Binding is one entry of a port's binding list: either a variable
// reference or a constant literal.
type Binding struct {
	kind     Kind
	variable string
	constant cty.Value
}

// BindVariable makes a variable binding.
func BindVariable(name string) Binding {
	return Binding{kind: KindVariable, variable: name}
}

// BindConstant makes a constant binding.
func BindConstant(v cty.Value) Binding {
	return Binding{kind: KindConstant, constant: v}
}

// Kind returns the binding's discriminator.
func (b Binding) Kind() Kind { return b.kind }

// Variable returns the bound variable name; empty for constants.
func (b Binding) Variable() string { return b.variable }

// Constant returns the bound literal; NilVal for variable bindings.
func (b Binding) Constant() cty.Value { return b.constant }

// Key returns a string under which equal bindings collide: variable
// bindings by name, constant bindings by canonical value representation.
func (b Binding) Key() string {
	if b.kind == KindConstant {
		return "const:" + b.constant.GoString()
	}
	return "var:" + b.variable
}

// Equal reports value equality: same kind and same variable name or same
// constant value.
func (b Binding) Equal(other Binding) bool {
	if b.kind != other.kind {
		return false
	}
	if b.kind == KindConstant {
		return b.constant.RawEquals(other.constant)
	}
	return b.variable == other.variable
}

// Recipe pairs a plot template with its port bindings. Binding order
// within a port is significant.
type Recipe struct {
	Plot       *template.Template
	Parameters map[string][]Binding
}

// Equal reports whether two recipes name the same plot and carry the same
// bindings in the same order on every port.
func (r *Recipe) Equal(other *Recipe) bool {
	if r.Plot.Owner != other.Plot.Owner || r.Plot.Name != other.Plot.Name {
		return false
	}
	if len(r.Parameters) != len(other.Parameters) {
		return false
	}
	for port, bindings := range r.Parameters {
		theirs, ok := other.Parameters[port]
		if !ok || len(theirs) != len(bindings) {
			return false
		}
		for i, b := range bindings {
			if !b.Equal(theirs[i]) {
				return false
			}
		}
	}
	return true
}
