package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

func builderRegistry(t *testing.T) *typedesc.Registry {
	t.Helper()
	reg := typedesc.NewRegistry()
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "test", Name: "reader", Version: "1",
		Inputs:  []*typedesc.Port{{Name: "path", Type: cty.String, Constant: true}},
		Outputs: []*typedesc.Port{{Name: "values", Type: cty.List(cty.Number)}},
	})
	reg.MustRegister(&typedesc.Descriptor{
		Owner: "test", Name: "scale", Version: "1",
		Inputs: []*typedesc.Port{
			{Name: "values", Type: cty.List(cty.Number)},
			{Name: "factor", Type: cty.Number, Constant: true},
		},
		Outputs: []*typedesc.Port{{Name: "values", Type: cty.List(cty.Number)}},
	})
	return reg
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	b := NewBuilder(builderRegistry(t), cty.List(cty.Number))

	reader, err := b.AddNode("test:reader")
	require.NoError(t, err)
	require.NoError(t, reader.SetParam("path", cty.StringVal("/data.csv")))

	scale, err := b.AddNode("test:scale")
	require.NoError(t, err)
	require.NoError(t, scale.SetParam("factor", cty.NumberFloatVal(1.8)))
	require.NoError(t, reader.Connect("values", scale, "values"))
	require.NoError(t, b.SelectOutput(scale, "values"))

	tpl, err := b.Build("temps")
	require.NoError(t, err)

	assert.Equal(t, "var:temps", tpl.String())
	typ, ok := tpl.OutputType()
	require.True(t, ok)
	assert.True(t, typ.Equals(cty.List(cty.Number)))

	// Two interior nodes plus the output marker, wired through.
	require.Len(t, tpl.Nodes, 3)
	require.Len(t, tpl.Edges, 2)
	n0, ok := tpl.Node("n0")
	require.True(t, ok)
	assert.Equal(t, template.RoleInterior, n0.Role)
	require.Len(t, n0.Params["path"], 1)
}

func TestBuilder_Validation(t *testing.T) {
	t.Parallel()

	t.Run("unknown node type", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Number)
		_, err := b.AddNode("test:missing")
		require.ErrorIs(t, err, typedesc.ErrUnknownType)
	})

	t.Run("param on unknown port", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Number)
		reader, err := b.AddNode("test:reader")
		require.NoError(t, err)
		require.ErrorIs(t, reader.SetParam("missing", cty.StringVal("x")), typedesc.ErrUnknownPort)
	})

	t.Run("param of wrong type", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Number)
		reader, err := b.AddNode("test:reader")
		require.NoError(t, err)
		require.Error(t, reader.SetParam("path", cty.True))
	})

	t.Run("incompatible connection", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Number)
		reader, err := b.AddNode("test:reader")
		require.NoError(t, err)
		scale, err := b.AddNode("test:scale")
		require.NoError(t, err)
		require.Error(t, reader.Connect("values", scale, "factor"))
	})

	t.Run("output selected twice", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.List(cty.Number))
		reader, err := b.AddNode("test:reader")
		require.NoError(t, err)
		require.NoError(t, b.SelectOutput(reader, "values"))
		require.Error(t, b.SelectOutput(reader, "values"))
	})

	t.Run("output of wrong type", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Bool)
		reader, err := b.AddNode("test:reader")
		require.NoError(t, err)
		require.Error(t, b.SelectOutput(reader, "values"))
	})

	t.Run("build without output", func(t *testing.T) {
		t.Parallel()
		b := NewBuilder(builderRegistry(t), cty.Number)
		_, err := b.Build("temps")
		require.Error(t, err)
	})
}
