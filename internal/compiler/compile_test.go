package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/recipe"
	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
	"github.com/chaosphere2112/dat/internal/vars"
)

func TestCompile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	r := f.recipe(map[string][]recipe.Binding{
		"series": {recipe.BindVariable("tempsA")},
		"color":  {recipe.BindConstant(cty.StringVal("red"))},
	})

	compiled, err := f.comp.Compile(ctx, r)
	require.NoError(t, err)

	v, ok := f.store.Version(compiled.Version)
	require.True(t, ok)
	assert.Equal(t, graph.RootVersion, v.Parent(), "full compiles build on the empty root")
	assert.Equal(t, "Created graph for plot plots:line", v.Description())

	t.Run("graph contents", func(t *testing.T) {
		// renderer + reader + scale + synthesized location + constant.
		assert.Equal(t, 5, v.NodeCount())
		require.Len(t, nodesOfType(v, "plots:line-renderer"), 1)
		require.Len(t, nodesOfType(v, "dat:csv-reader"), 1)
		require.Len(t, nodesOfClass(v, typedesc.ClassLocation), 1)

		// reader->scale, scale->renderer, constant->renderer,
		// location->renderer.
		assert.Equal(t, 4, v.EdgeCount())
	})

	t.Run("conn map groups edges per binding", func(t *testing.T) {
		require.Len(t, compiled.ConnMap["series"], 1)
		require.Len(t, compiled.ConnMap["series"][0], 1)
		require.Len(t, compiled.ConnMap["color"], 1)

		renderer := nodesOfType(v, "plots:line-renderer")[0]
		e, ok := v.Edge(compiled.ConnMap["series"][0][0])
		require.True(t, ok)
		assert.Equal(t, renderer, e.Target)
		assert.Equal(t, "series", e.TargetPort)
	})

	t.Run("port map covers required and bound ports", func(t *testing.T) {
		assert.Contains(t, compiled.PortMap, "series")
		assert.Contains(t, compiled.PortMap, "color")
		assert.NotContains(t, compiled.PortMap, "width", "unbound optional ports are omitted")
	})

	t.Run("constant value rides on its node", func(t *testing.T) {
		e, ok := v.Edge(compiled.ConnMap["color"][0][0])
		require.True(t, ok)
		n, ok := v.Node(e.Source)
		require.True(t, ok)
		require.Len(t, n.Params["value"], 1)
		assert.True(t, n.Params["value"][0].RawEquals(cty.StringVal("red")))
	})

	t.Run("version is tagged", func(t *testing.T) {
		tagged, ok := f.store.Tagged("plot:plots:line#1")
		require.True(t, ok)
		assert.Equal(t, compiled.Version, tagged.ID())
	})
}

func TestCompile_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown port", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series":  {recipe.BindVariable("tempsA")},
			"opacity": {recipe.BindConstant(cty.NumberIntVal(1))},
		}))
		require.ErrorIs(t, err, typedesc.ErrUnknownPort)
	})

	t.Run("unknown variable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("missing")},
		}))
		require.ErrorIs(t, err, vars.ErrUnknownVariable)
	})

	t.Run("incompatible variable without typecast", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("tempsA")},
			"width":  {recipe.BindVariable("enabled")},
		}))
		require.ErrorIs(t, err, ErrIncompatibleBinding)
	})

	t.Run("incompatible constant", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("tempsA")},
			"width":  {recipe.BindConstant(cty.True)},
		}))
		require.ErrorIs(t, err, ErrIncompatibleBinding)
	})

	t.Run("required port unbound", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"color": {recipe.BindConstant(cty.StringVal("red"))},
		}))
		require.Error(t, err)
	})

	t.Run("failed compiles leave the store untouched", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("missing")},
		}))
		require.Error(t, err)

		_, ok := f.store.Version(1)
		assert.False(t, ok, "no version may be committed by a failing compile")
	})
}

func TestCompile_Typecast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	castDesc, err := f.comp.Types.Resolve("test:cast")
	require.NoError(t, err)

	f.comp.Typecast = func(ctx context.Context, log *graph.Log, output graph.Anchor, from, to cty.Type) (graph.Anchor, error) {
		n := log.AddNode(castDesc)
		if _, err := log.Connect(output.Node, output.Port, n.ID, "in"); err != nil {
			return graph.Anchor{}, err
		}
		return graph.Anchor{Node: n.ID, Port: "out"}, nil
	}

	compiled, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
		"series": {recipe.BindVariable("tempsA")},
		"width":  {recipe.BindVariable("enabled")},
	}))
	require.NoError(t, err)

	v, ok := f.store.Version(compiled.Version)
	require.True(t, ok)

	casts := nodesOfType(v, "test:cast")
	require.Len(t, casts, 1, "the typecast hook must run for the mismatched binding")

	// The width group connects from the cast node, not the variable.
	require.Len(t, compiled.ConnMap["width"], 1)
	e, ok := v.Edge(compiled.ConnMap["width"][0][0])
	require.True(t, ok)
	assert.Equal(t, casts[0], e.Source)
	assert.Equal(t, "width", e.TargetPort)
}

func TestCompile_DisplayPlacement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("plot with its own location is left alone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.plot.Nodes = append(f.plot.Nodes, &template.Node{
			Key: "loc", Role: template.RoleInterior, Type: "dat:cell-location",
		})
		f.plot.Edges = append(f.plot.Edges, &template.Edge{
			Source: "loc", SourcePort: "self", Target: "renderer", TargetPort: "location",
		})

		compiled, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("tempsA")},
		}))
		require.NoError(t, err)

		v, _ := f.store.Version(compiled.Version)
		assert.Len(t, nodesOfClass(v, typedesc.ClassLocation), 1, "no second location may be synthesized")
	})

	t.Run("no location type configured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.comp.LocationType = nil

		compiled, err := f.comp.Compile(ctx, f.recipe(map[string][]recipe.Binding{
			"series": {recipe.BindVariable("tempsA")},
		}))
		require.NoError(t, err)

		v, _ := f.store.Version(compiled.Version)
		assert.Empty(t, nodesOfClass(v, typedesc.ClassLocation))
	})
}
