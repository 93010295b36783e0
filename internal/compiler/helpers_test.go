package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/recipe"
	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
	"github.com/chaosphere2112/dat/internal/vars"
)

func testRegistry() *typedesc.Registry {
	reg := typedesc.NewRegistry()
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "plots", Name: "line-renderer", Version: "1",
		Class: typedesc.ClassDisplay,
		Inputs: []*typedesc.Port{
			{Name: "location", Type: cty.DynamicPseudoType, Optional: true},
			{Name: "series", Type: cty.List(cty.Number)},
			{Name: "color", Type: cty.String, Optional: true, Constant: true},
			{Name: "width", Type: cty.Number, Optional: true},
		},
		Outputs: []*typedesc.Port{{Name: "image", Type: cty.String}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "dat", Name: "cell-location", Version: "1",
		Class:   typedesc.ClassLocation,
		Outputs: []*typedesc.Port{{Name: "self", Type: cty.DynamicPseudoType}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "dat", Name: "csv-reader", Version: "1",
		Inputs:  []*typedesc.Port{{Name: "path", Type: cty.String, Constant: true}},
		Outputs: []*typedesc.Port{{Name: "values", Type: cty.List(cty.Number)}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "dat", Name: "scale", Version: "1",
		Inputs: []*typedesc.Port{
			{Name: "values", Type: cty.List(cty.Number)},
			{Name: "factor", Type: cty.Number, Constant: true},
		},
		Outputs: []*typedesc.Port{{Name: "values", Type: cty.List(cty.Number)}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "test", Name: "flag", Version: "1",
		Outputs: []*typedesc.Port{{Name: "flag", Type: cty.Bool}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "test", Name: "cast", Version: "1",
		Inputs:  []*typedesc.Port{{Name: "in", Type: cty.Bool}},
		Outputs: []*typedesc.Port{{Name: "out", Type: cty.Number}},
	})
	return reg
}

// linePlot mirrors the examples' line plot: one display node whose series,
// color and width ports are exposed to recipes.
func linePlot(t *testing.T) *template.Template {
	t.Helper()
	tpl := &template.Template{
		Owner: "plots", Name: "line",
		Nodes: []*template.Node{
			{Key: "renderer", Role: template.RoleInterior, Type: "plots:line-renderer"},
			{Key: "input.series", Role: template.RoleInput, InputName: "series",
				ValueType: cty.List(cty.Number)},
			{Key: "input.color", Role: template.RoleInput, InputName: "color",
				ValueType: cty.String, Optional: true, Constant: true},
			{Key: "input.width", Role: template.RoleInput, InputName: "width",
				ValueType: cty.Number, Optional: true},
			{Key: "output", Role: template.RoleOutput, ValueType: cty.String},
		},
		Edges: []*template.Edge{
			{Source: "input.series", SourcePort: template.BoundaryPort, Target: "renderer", TargetPort: "series"},
			{Source: "input.color", SourcePort: template.BoundaryPort, Target: "renderer", TargetPort: "color"},
			{Source: "input.width", SourcePort: template.BoundaryPort, Target: "renderer", TargetPort: "width"},
			{Source: "renderer", SourcePort: "image", Target: "output", TargetPort: template.BoundaryPort},
		},
	}
	require.NoError(t, tpl.DerivePorts(context.Background()))
	return tpl
}

// seriesVar is a reader feeding a scale node, producing list(number).
func seriesVar(name, path string) *template.Template {
	return &template.Template{
		Owner: "var", Name: name,
		Nodes: []*template.Node{
			{Key: "reader", Role: template.RoleInterior, Type: "dat:csv-reader",
				Params: map[string][]cty.Value{"path": {cty.StringVal(path)}}},
			{Key: "scaled", Role: template.RoleInterior, Type: "dat:scale",
				Params: map[string][]cty.Value{"factor": {cty.NumberFloatVal(1.8)}}},
			{Key: "output", Role: template.RoleOutput, ValueType: cty.List(cty.Number)},
		},
		Edges: []*template.Edge{
			{Source: "reader", SourcePort: "values", Target: "scaled", TargetPort: "values"},
			{Source: "scaled", SourcePort: "values", Target: "output", TargetPort: template.BoundaryPort},
		},
	}
}

// boolVar produces a bool, which no renderer port accepts directly.
func boolVar(name string) *template.Template {
	return &template.Template{
		Owner: "var", Name: name,
		Nodes: []*template.Node{
			{Key: "src", Role: template.RoleInterior, Type: "test:flag"},
			{Key: "output", Role: template.RoleOutput, ValueType: cty.Bool},
		},
		Edges: []*template.Edge{
			{Source: "src", SourcePort: "flag", Target: "output", TargetPort: template.BoundaryPort},
		},
	}
}

type fixture struct {
	store *graph.Store
	comp  *Compiler
	plot  *template.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	variables := vars.NewInMemory()
	require.NoError(t, variables.Define("tempsA", seriesVar("tempsA", "/a.csv")))
	require.NoError(t, variables.Define("tempsB", seriesVar("tempsB", "/b.csv")))
	require.NoError(t, variables.Define("enabled", boolVar("enabled")))

	store := graph.NewStore(nil)
	return &fixture{
		store: store,
		plot:  linePlot(t),
		comp: &Compiler{
			Store:        store,
			Types:        testRegistry(),
			Variables:    variables,
			LocationType: "dat:cell-location",
		},
	}
}

func (f *fixture) recipe(params map[string][]recipe.Binding) *recipe.Recipe {
	return &recipe.Recipe{Plot: f.plot, Parameters: params}
}

// nodesOfClass returns the version's node ids carrying the given class, in
// id order.
func nodesOfClass(v *graph.Version, class typedesc.Class) []graph.NodeID {
	var ids []graph.NodeID
	for _, n := range v.Nodes() {
		if n.Type.Class == class {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// nodesOfType returns the version's node ids whose descriptor matches the
// "owner:name" reference.
func nodesOfType(v *graph.Version, ref string) []graph.NodeID {
	var ids []graph.NodeID
	for _, n := range v.Nodes() {
		if n.Type.String() == ref {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
