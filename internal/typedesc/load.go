package typedesc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chaosphere2112/dat/internal/ctxlog"
)

// HCL schema for node-type manifest files.

type portBlock struct {
	Name     string         `hcl:"name,label"`
	Type     hcl.Expression `hcl:"type"`
	Optional bool           `hcl:"optional,optional"`
	Constant bool           `hcl:"constant,optional"`
}

type nodeTypeBlock struct {
	Ref     string       `hcl:"ref,label"`
	Version string       `hcl:"version,optional"`
	Class   string       `hcl:"class,optional"`
	Inputs  []*portBlock `hcl:"input,block"`
	Outputs []*portBlock `hcl:"output,block"`
}

type manifestFile struct {
	NodeTypes []*nodeTypeBlock `hcl:"node_type,block"`
}

// LoadFile parses one HCL manifest file and registers every node_type block
// it declares.
func (r *Registry) LoadFile(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing manifest %q: %w", path, diags)
	}

	var manifest manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return fmt.Errorf("decoding manifest %q: %w", path, diags)
	}

	for _, block := range manifest.NodeTypes {
		d, err := descriptorFromBlock(block)
		if err != nil {
			return fmt.Errorf("manifest %q: %w", path, err)
		}
		if err := r.Register(d); err != nil {
			return fmt.Errorf("manifest %q: %w", path, err)
		}
		logger.Debug("Registered node type.", "type", d.String(), "class", d.Class.String())
	}
	return nil
}

// LoadDir loads every .hcl manifest file directly under dir.
func (r *Registry) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading manifest directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		if err := r.LoadFile(ctx, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func descriptorFromBlock(block *nodeTypeBlock) (*Descriptor, error) {
	owner, name, ok := strings.Cut(block.Ref, ":")
	if !ok {
		return nil, fmt.Errorf("node_type label %q must be \"owner:name\"", block.Ref)
	}

	var class Class
	switch block.Class {
	case "", "generic":
		class = ClassGeneric
	case "display":
		class = ClassDisplay
	case "location":
		class = ClassLocation
	default:
		return nil, fmt.Errorf("node_type %q: unknown class %q", block.Ref, block.Class)
	}

	d := &Descriptor{
		Owner:   owner,
		Name:    name,
		Version: block.Version,
		Class:   class,
	}
	for _, in := range block.Inputs {
		t, err := ParseTypeExpr(in.Type)
		if err != nil {
			return nil, fmt.Errorf("node_type %q input %q: %w", block.Ref, in.Name, err)
		}
		d.Inputs = append(d.Inputs, &Port{
			Name:     in.Name,
			Type:     t,
			Optional: in.Optional,
			Constant: in.Constant,
		})
	}
	for _, out := range block.Outputs {
		t, err := ParseTypeExpr(out.Type)
		if err != nil {
			return nil, fmt.Errorf("node_type %q output %q: %w", block.Ref, out.Name, err)
		}
		d.Outputs = append(d.Outputs, &Port{Name: out.Name, Type: t})
	}
	return d, nil
}
