// Package splice copies template subgraphs into a working edit log.
// Interior nodes get fresh identities in the destination graph; boundary
// markers are consumed and reported back as wiring points the caller
// connects recipe bindings to.
package splice

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

// ErrMalformedTemplate means the template violates the boundary contract:
// not exactly one output marker, an edge between two markers, an edge
// entering an input marker or a second edge entering the output marker, or
// an input marker with no name.
var ErrMalformedTemplate = errors.New("malformed template")

// Result describes one splice: the identities the interior nodes received,
// the interior anchors each named input boundary fans out to, and the
// anchor the output boundary reads from.
type Result struct {
	// Mapping translates template node keys to the fresh graph node ids.
	Mapping map[string]graph.NodeID
	// Inputs lists, per input port name, the interior anchors a binding
	// for that port must be connected to. Order follows the template's
	// edge order.
	Inputs map[string][]graph.Anchor
	// Output is the interior anchor the template's value is read from.
	Output graph.Anchor
}

// Splice stages a copy of the template's interior into the log. Every
// interior node is added under a fresh id with its parameters applied;
// interior edges are re-established between the copies. Boundary markers
// never appear in the destination graph. Splicing the same template twice
// yields disjoint copies.
func Splice(ctx context.Context, log *graph.Log, reg *typedesc.Registry, tpl *template.Template) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	res := &Result{
		Mapping: make(map[string]graph.NodeID),
		Inputs:  make(map[string][]graph.Anchor),
	}

	var outputs, inputs int
	for _, n := range tpl.Nodes {
		switch n.Role {
		case template.RoleInterior:
			desc, err := reg.Resolve(n.Type)
			if err != nil {
				return nil, fmt.Errorf("template %s node %q: %w", tpl, n.Key, err)
			}
			staged := log.AddNode(desc)
			for port, values := range n.Params {
				if err := log.SetParam(staged.ID, port, values); err != nil {
					return nil, fmt.Errorf("template %s node %q: %w", tpl, n.Key, err)
				}
			}
			res.Mapping[n.Key] = staged.ID
		case template.RoleInput:
			if n.InputName == "" {
				return nil, fmt.Errorf("%w: %s has an unnamed input boundary", ErrMalformedTemplate, tpl)
			}
			inputs++
		case template.RoleOutput:
			outputs++
		}
	}
	if outputs != 1 {
		return nil, fmt.Errorf("%w: %s has %d output boundaries, want exactly 1", ErrMalformedTemplate, tpl, outputs)
	}

	var haveOutput bool
	for _, e := range tpl.Edges {
		src, ok := tpl.Node(e.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s edge references unknown node %q", ErrMalformedTemplate, tpl, e.Source)
		}
		dst, ok := tpl.Node(e.Target)
		if !ok {
			return nil, fmt.Errorf("%w: %s edge references unknown node %q", ErrMalformedTemplate, tpl, e.Target)
		}

		switch {
		case src.Role != template.RoleInterior && dst.Role != template.RoleInterior:
			return nil, fmt.Errorf("%w: %s connects boundary %q directly to boundary %q",
				ErrMalformedTemplate, tpl, e.Source, e.Target)

		case src.Role == template.RoleInput:
			res.Inputs[src.InputName] = append(res.Inputs[src.InputName], graph.Anchor{
				Node: res.Mapping[e.Target],
				Port: e.TargetPort,
			})

		case dst.Role == template.RoleInput:
			return nil, fmt.Errorf("%w: %s has an edge into input boundary %q",
				ErrMalformedTemplate, tpl, e.Target)

		case dst.Role == template.RoleOutput:
			if haveOutput {
				return nil, fmt.Errorf("%w: %s has several edges into its output boundary",
					ErrMalformedTemplate, tpl)
			}
			haveOutput = true
			res.Output = graph.Anchor{Node: res.Mapping[e.Source], Port: e.SourcePort}

		case src.Role == template.RoleOutput:
			return nil, fmt.Errorf("%w: %s has an edge leaving its output boundary",
				ErrMalformedTemplate, tpl)

		default:
			if _, err := log.Connect(res.Mapping[e.Source], e.SourcePort, res.Mapping[e.Target], e.TargetPort); err != nil {
				return nil, fmt.Errorf("template %s: %w", tpl, err)
			}
		}
	}
	if !haveOutput {
		return nil, fmt.Errorf("%w: %s has no edge into its output boundary", ErrMalformedTemplate, tpl)
	}

	logger.Debug("Spliced template.",
		"template", tpl.String(),
		"nodes", len(res.Mapping), "inputs", inputs)
	return res, nil
}
