package template

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

// DerivePorts fills in the recipe-facing port list from the template's
// input boundary markers and reconciles it with any ports declared up
// front. Discovery rules follow the behaviour of reading a subworkflow's
// metadata: a marker with no type is assumed dynamic with a warning; a
// declared port whose marker disagrees keeps the declaration but warns;
// a declared port with no marker at all is an error.
func (t *Template) DerivePorts(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	declared := make(map[string]*typedesc.Port, len(t.Ports))
	for _, p := range t.Ports {
		declared[p.Name] = p
	}

	seen := make(map[string]bool)
	for _, n := range t.Nodes {
		if n.Role != RoleInput {
			continue
		}
		name := n.InputName
		if name == "" {
			return fmt.Errorf("template %s has an input boundary with no name", t)
		}
		if seen[name] {
			return fmt.Errorf("template %s has several input boundaries named %q", t, name)
		}
		seen[name] = true

		markerType := n.ValueType
		if markerType == cty.NilType {
			logger.Warn("Input boundary has no type, assuming any.",
				"template", t.String(), "port", name)
			markerType = cty.DynamicPseudoType
		}

		port, ok := declared[name]
		if !ok {
			// Ports can be discovered entirely from the markers; only a
			// partially declared list suggests an author mistake.
			if len(declared) > 0 {
				logger.Warn("Port declaration omitted a boundary present in the template.",
					"template", t.String(), "port", name)
			}
			t.Ports = append(t.Ports, &typedesc.Port{
				Name:     name,
				Type:     markerType,
				Optional: n.Optional,
				Constant: n.Constant,
			})
			continue
		}
		if !port.Type.Equals(markerType) || port.Optional != n.Optional {
			logger.Warn("Port declaration differs from template contents.",
				"template", t.String(), "port", name)
		}
	}

	for name := range declared {
		if !seen[name] {
			return fmt.Errorf("template %s declares port %q but has no matching input boundary", t, name)
		}
	}
	return nil
}
