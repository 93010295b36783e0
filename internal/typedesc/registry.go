package typedesc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Ref is a structural reference to a node type.
type Ref struct {
	Owner string
	Name  string
}

// Registry holds the node-type descriptors known to a process. Registration
// is explicit: the owning package passes its own identity on the descriptor.
type Registry struct {
	mu        sync.RWMutex
	byRef     map[Ref]*Descriptor
	constants map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byRef:     make(map[Ref]*Descriptor),
		constants: make(map[string]*Descriptor),
	}
}

// Register adds a descriptor under its owner and name. Registering the same
// reference twice is an error.
func (r *Registry) Register(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	ref := Ref{Owner: d.Owner, Name: d.Name}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byRef[ref]; ok {
		return fmt.Errorf("node type %q already registered", d)
	}
	r.byRef[ref] = d
	return nil
}

// MustRegister is Register for static initialization; it panics on error.
func (r *Registry) MustRegister(d *Descriptor) *Descriptor {
	if err := r.Register(d); err != nil {
		panic(err)
	}
	return d
}

// Resolve turns a type reference into a registered descriptor. It accepts:
//
//   - *Descriptor: returned as-is,
//   - Ref: looked up by owner and name,
//   - string: "owner:name", or a bare name when it is unambiguous.
//
// Anything else, or a reference that does not match a registered
// descriptor, fails with ErrUnknownType.
func (r *Registry) Resolve(ref any) (*Descriptor, error) {
	switch v := ref.(type) {
	case *Descriptor:
		return v, nil
	case Ref:
		r.mu.RLock()
		defer r.mu.RUnlock()
		if d, ok := r.byRef[v]; ok {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownType, v.Owner, v.Name)
	case string:
		return r.resolveString(v)
	default:
		return nil, fmt.Errorf("%w: unsupported reference %T", ErrUnknownType, ref)
	}
}

func (r *Registry) resolveString(s string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if owner, name, ok := strings.Cut(s, ":"); ok {
		if d, found := r.byRef[Ref{Owner: owner, Name: name}]; found {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}

	// A bare name resolves only when exactly one owner declares it.
	var match *Descriptor
	for ref, d := range r.byRef {
		if ref.Name != s {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %q is declared by both %q and %q",
				ErrUnknownType, s, match.Owner, d.Owner)
		}
		match = d
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return match, nil
}

// ConstantDescriptor returns the synthesized node type used to feed a
// literal value of type t into a graph. The descriptor has a single
// constant input port "value" (holding the literal as a parameter) and a
// single output port "value" of the same type. Descriptors are cached per
// type so repeated constants share one identity.
func (r *Registry) ConstantDescriptor(t cty.Type) *Descriptor {
	key := t.GoString()
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.constants[key]; ok {
		return d
	}
	d := &Descriptor{
		Owner:   "dat",
		Name:    fmt.Sprintf("constant(%s)", t.FriendlyName()),
		Version: "1",
		Inputs:  []*Port{{Name: "value", Type: t, Constant: true}},
		Outputs: []*Port{{Name: "value", Type: t}},
	}
	r.constants[key] = d
	return d
}
