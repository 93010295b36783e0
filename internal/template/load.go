package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/typedesc"
)

// HCL schema for template files. Input and output blocks are sugar for
// boundary marker nodes plus their synthetic edges.

type paramBlock struct {
	Port   string         `hcl:"port,label"`
	Values hcl.Expression `hcl:"values"`
}

type nodeBlock struct {
	Key    string        `hcl:"key,label"`
	Type   string        `hcl:"type"`
	Params []*paramBlock `hcl:"param,block"`
}

type edgeBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type inputBlock struct {
	Name     string         `hcl:"name,label"`
	Type     hcl.Expression `hcl:"type,optional"`
	Optional bool           `hcl:"optional,optional"`
	Constant bool           `hcl:"constant,optional"`
	To       []string       `hcl:"to"`
}

type outputBlock struct {
	From string         `hcl:"from"`
	Type hcl.Expression `hcl:"type,optional"`
}

type templateBlock struct {
	Ref     string         `hcl:"ref,label"`
	Nodes   []*nodeBlock   `hcl:"node,block"`
	Edges   []*edgeBlock   `hcl:"edge,block"`
	Inputs  []*inputBlock  `hcl:"input,block"`
	Outputs []*outputBlock `hcl:"output,block"`
}

type templateFile struct {
	Templates []*templateBlock `hcl:"template,block"`
}

// ParseFile reads every template block from one HCL file.
func ParseFile(ctx context.Context, path string) ([]*Template, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing template file %q: %w", path, diags)
	}

	var tf templateFile
	if diags := gohcl.DecodeBody(file.Body, nil, &tf); diags.HasErrors() {
		return nil, fmt.Errorf("decoding template file %q: %w", path, diags)
	}

	templates := make([]*Template, 0, len(tf.Templates))
	for _, block := range tf.Templates {
		t, err := fromBlock(ctx, block)
		if err != nil {
			return nil, fmt.Errorf("template file %q: %w", path, err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func fromBlock(ctx context.Context, block *templateBlock) (*Template, error) {
	owner, name, ok := strings.Cut(block.Ref, ":")
	if !ok {
		return nil, fmt.Errorf("template label %q must be \"owner:name\"", block.Ref)
	}
	t := &Template{Owner: owner, Name: name}

	for _, nb := range block.Nodes {
		node := &Node{Key: nb.Key, Role: RoleInterior, Type: nb.Type}
		for _, pb := range nb.Params {
			values, err := evalValues(pb.Values)
			if err != nil {
				return nil, fmt.Errorf("template %q node %q param %q: %w", block.Ref, nb.Key, pb.Port, err)
			}
			if node.Params == nil {
				node.Params = make(map[string][]cty.Value)
			}
			node.Params[pb.Port] = values
		}
		t.Nodes = append(t.Nodes, node)
	}

	for _, eb := range block.Edges {
		srcKey, srcPort, err := splitAnchor(eb.From)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", block.Ref, err)
		}
		dstKey, dstPort, err := splitAnchor(eb.To)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", block.Ref, err)
		}
		t.Edges = append(t.Edges, &Edge{
			Source: srcKey, SourcePort: srcPort,
			Target: dstKey, TargetPort: dstPort,
		})
	}

	for _, ib := range block.Inputs {
		valueType, err := typedesc.ParseTypeExpr(ib.Type)
		if err != nil {
			return nil, fmt.Errorf("template %q input %q: %w", block.Ref, ib.Name, err)
		}
		markerKey := "input." + ib.Name
		t.Nodes = append(t.Nodes, &Node{
			Key:       markerKey,
			Role:      RoleInput,
			InputName: ib.Name,
			ValueType: valueType,
			Optional:  ib.Optional,
			Constant:  ib.Constant,
		})
		for _, target := range ib.To {
			dstKey, dstPort, err := splitAnchor(target)
			if err != nil {
				return nil, fmt.Errorf("template %q input %q: %w", block.Ref, ib.Name, err)
			}
			t.Edges = append(t.Edges, &Edge{
				Source: markerKey, SourcePort: BoundaryPort,
				Target: dstKey, TargetPort: dstPort,
			})
		}
	}

	for i, ob := range block.Outputs {
		valueType, err := typedesc.ParseTypeExpr(ob.Type)
		if err != nil {
			return nil, fmt.Errorf("template %q output: %w", block.Ref, err)
		}
		markerKey := "output"
		if i > 0 {
			// Extra output markers are kept so the splicer can report the
			// malformed template instead of silently dropping them.
			markerKey = fmt.Sprintf("output.%d", i)
		}
		t.Nodes = append(t.Nodes, &Node{
			Key:       markerKey,
			Role:      RoleOutput,
			ValueType: valueType,
		})
		srcKey, srcPort, err := splitAnchor(ob.From)
		if err != nil {
			return nil, fmt.Errorf("template %q output: %w", block.Ref, err)
		}
		t.Edges = append(t.Edges, &Edge{
			Source: srcKey, SourcePort: srcPort,
			Target: markerKey, TargetPort: BoundaryPort,
		})
	}

	if err := t.DerivePorts(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// splitAnchor parses "node.port" references used in edges.
func splitAnchor(s string) (key, port string, err error) {
	key, port, ok := strings.Cut(s, ".")
	if !ok || key == "" || port == "" {
		return "", "", fmt.Errorf("anchor %q must be \"node.port\"", s)
	}
	return key, port, nil
}

// evalValues evaluates a constant expression into the ordered value list a
// param block carries. A tuple or list expression spreads into multiple
// values.
func evalValues(expr hcl.Expression) ([]cty.Value, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating values: %w", diags)
	}
	if v.Type().IsTupleType() || v.Type().IsListType() {
		return v.AsValueSlice(), nil
	}
	return []cty.Value{v}, nil
}
