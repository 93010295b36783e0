package vars

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/template"
)

// TemplateSource serves variables straight out of a template store: every
// template registered under the configured owner is a variable named by
// its tag. Used by the CLI, where variables arrive as files rather than
// through the builder.
type TemplateSource struct {
	Templates *template.Store
	Owner     string
}

// GetCompiled implements Store.
func (s *TemplateSource) GetCompiled(_ context.Context, name string) (*template.Template, error) {
	t, err := s.Templates.Get(s.Owner, name)
	if err != nil {
		if errors.Is(err, template.ErrUnknownTemplate) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		return nil, err
	}
	return t, nil
}

// GetType implements Store.
func (s *TemplateSource) GetType(ctx context.Context, name string) (cty.Type, error) {
	t, err := s.GetCompiled(ctx, name)
	if err != nil {
		return cty.NilType, err
	}
	typ, ok := t.OutputType()
	if !ok {
		return cty.NilType, fmt.Errorf("variable %q: template %s has no output boundary", name, t)
	}
	return typ, nil
}
