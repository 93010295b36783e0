package recipe

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chaosphere2112/dat/internal/template"
)

type bindBlock struct {
	Port     string         `hcl:"port,label"`
	Variable *string        `hcl:"variable,optional"`
	Constant hcl.Expression `hcl:"constant,optional"`
}

type recipeBlock struct {
	Plot  string       `hcl:"plot"`
	Binds []*bindBlock `hcl:"bind,block"`
}

type recipeFile struct {
	Recipe *recipeBlock `hcl:"recipe,block"`
}

// ParseFile reads a recipe description from one HCL file. Bind blocks for
// the same port accumulate into an ordered binding list; block order in
// the file is the binding order.
func ParseFile(ctx context.Context, path string, resolve func(ref string) (*template.Template, error)) (*Recipe, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing recipe file %q: %w", path, diags)
	}

	var rf recipeFile
	if diags := gohcl.DecodeBody(file.Body, nil, &rf); diags.HasErrors() {
		return nil, fmt.Errorf("decoding recipe file %q: %w", path, diags)
	}
	if rf.Recipe == nil {
		return nil, fmt.Errorf("recipe file %q has no recipe block", path)
	}

	plot, err := resolve(rf.Recipe.Plot)
	if err != nil {
		return nil, fmt.Errorf("recipe file %q: %w", path, err)
	}

	r := &Recipe{Plot: plot, Parameters: make(map[string][]Binding)}
	for _, bb := range rf.Recipe.Binds {
		b, err := bindFromBlock(bb)
		if err != nil {
			return nil, fmt.Errorf("recipe file %q port %q: %w", path, bb.Port, err)
		}
		r.Parameters[bb.Port] = append(r.Parameters[bb.Port], b)
	}
	return r, nil
}

func bindFromBlock(bb *bindBlock) (Binding, error) {
	hasConstant := bb.Constant != nil
	if hasConstant {
		// An explicit `constant = null` counts as unset.
		if v, diags := bb.Constant.Value(nil); !diags.HasErrors() && v.IsNull() {
			hasConstant = false
		}
	}

	switch {
	case bb.Variable != nil && hasConstant:
		return Binding{}, fmt.Errorf("bind block sets both variable and constant")
	case bb.Variable != nil:
		return BindVariable(*bb.Variable), nil
	case hasConstant:
		v, diags := bb.Constant.Value(nil)
		if diags.HasErrors() {
			return Binding{}, fmt.Errorf("evaluating constant: %w", diags)
		}
		return BindConstant(v), nil
	default:
		return Binding{}, fmt.Errorf("bind block sets neither variable nor constant")
	}
}
