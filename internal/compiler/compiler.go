// Package compiler turns recipes into committed graph versions. A compile
// splices the plot template into a fresh edit log, wires every binding
// into the plot's input anchors, and commits the whole thing atomically.
// An update diffs two recipes of the same plot and patches only the
// bindings that changed.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/recipe"
	"github.com/chaosphere2112/dat/internal/splice"
	"github.com/chaosphere2112/dat/internal/typedesc"
	"github.com/chaosphere2112/dat/internal/vars"
)

var (
	// ErrIncompatibleBinding means a binding's value type cannot feed the
	// port it is bound to, even through the typecast hook.
	ErrIncompatibleBinding = errors.New("binding incompatible with port")

	// ErrTemplateMismatch means an update was asked to reconcile recipes
	// built on different plots.
	ErrTemplateMismatch = errors.New("recipes use different plots")
)

// Typecast adapts a variable output to a narrower port type. The hook may
// stage adapter nodes on the log; it returns the anchor the binding should
// connect from instead of the original output. A nil hook disables
// typecasting and makes mismatched variable bindings a compile error.
type Typecast func(ctx context.Context, log *graph.Log, output graph.Anchor, from, to cty.Type) (graph.Anchor, error)

// CompiledGraph records what a compile produced, in the detail an
// incremental update needs: the committed version, the recipe it
// materializes, one edge-id group per binding (in binding order, per
// port), and the interior anchors each port fans out to.
type CompiledGraph struct {
	Version graph.VersionID
	Recipe  *recipe.Recipe
	ConnMap map[string][][]graph.EdgeID
	PortMap map[string][]graph.Anchor

	// anchors keeps the splice anchors of every port, bound or not, so a
	// later update can wire a port the recipe left unbound.
	anchors map[string][]graph.Anchor
}

// Compiler owns the pieces a compile needs. LocationType, when set, names
// the node type synthesized next to display nodes that arrive without a
// placement.
type Compiler struct {
	Store        *graph.Store
	Types        *typedesc.Registry
	Variables    vars.Store
	Typecast     Typecast
	LocationType any
}

// validate checks a recipe against its plot before any edit is staged:
// every bound port must be declared, every variable must exist, and every
// binding's type must reach the port directly or through the typecast
// hook. Failing early keeps half-built logs from ever being committed.
func (c *Compiler) validate(ctx context.Context, r *recipe.Recipe) error {
	for name, bindings := range r.Parameters {
		port, err := r.Plot.Port(name)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			switch b.Kind() {
			case recipe.KindVariable:
				typ, err := c.Variables.GetType(ctx, b.Variable())
				if err != nil {
					return err
				}
				if !typedesc.AssignableTo(typ, port.Type) && c.Typecast == nil {
					return fmt.Errorf("%w: variable %q (%s) on port %q (%s)",
						ErrIncompatibleBinding, b.Variable(),
						typ.FriendlyName(), name, port.Type.FriendlyName())
				}
			case recipe.KindConstant:
				if !typedesc.AssignableTo(b.Constant().Type(), port.Type) {
					return fmt.Errorf("%w: constant of type %s on port %q (%s)",
						ErrIncompatibleBinding, b.Constant().Type().FriendlyName(),
						name, port.Type.FriendlyName())
				}
			}
		}
	}
	for _, port := range r.Plot.Ports {
		if !port.Optional && len(r.Parameters[port.Name]) == 0 {
			return fmt.Errorf("port %q of plot %s is required but not bound", port.Name, r.Plot)
		}
	}
	return nil
}

// wireBinding stages one binding against the given plot anchors and
// returns the ids of the edges entering the plot.
func (c *Compiler) wireBinding(ctx context.Context, log *graph.Log, port *typedesc.Port, b recipe.Binding, anchors []graph.Anchor) ([]graph.EdgeID, error) {
	var output graph.Anchor

	switch b.Kind() {
	case recipe.KindVariable:
		tpl, err := c.Variables.GetCompiled(ctx, b.Variable())
		if err != nil {
			return nil, err
		}
		res, err := splice.Splice(ctx, log, c.Types, tpl)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", b.Variable(), err)
		}
		output = res.Output

		typ, err := c.Variables.GetType(ctx, b.Variable())
		if err != nil {
			return nil, err
		}
		if !typedesc.AssignableTo(typ, port.Type) {
			if c.Typecast == nil {
				return nil, fmt.Errorf("%w: variable %q (%s) on port %q (%s)",
					ErrIncompatibleBinding, b.Variable(),
					typ.FriendlyName(), port.Name, port.Type.FriendlyName())
			}
			output, err = c.Typecast(ctx, log, output, typ, port.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: variable %q on port %q: %v",
					ErrIncompatibleBinding, b.Variable(), port.Name, err)
			}
		}

	case recipe.KindConstant:
		desc := c.Types.ConstantDescriptor(port.Type)
		n := log.AddNode(desc)
		if err := log.SetParam(n.ID, "value", []cty.Value{b.Constant()}); err != nil {
			return nil, fmt.Errorf("constant on port %q: %w", port.Name, err)
		}
		output = graph.Anchor{Node: n.ID, Port: "value"}
	}

	group := make([]graph.EdgeID, 0, len(anchors))
	for _, a := range anchors {
		id, err := log.Connect(output.Node, output.Port, a.Node, a.Port)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", port.Name, err)
		}
		group = append(group, id)
	}
	return group, nil
}
