// Package vars manages the named variables recipes bind to. A variable is
// a small compiled template producing a single typed value; the package
// offers a builder for constructing those templates programmatically and
// an in-memory store keyed by name.
package vars

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/template"
)

// ErrUnknownVariable is returned when a recipe names a variable the store
// does not hold.
var ErrUnknownVariable = errors.New("unknown variable")

// Store is the variable surface the compiler consumes.
type Store interface {
	// GetCompiled returns the template whose splice produces the
	// variable's value.
	GetCompiled(ctx context.Context, name string) (*template.Template, error)
	// GetType returns the variable's declared value type.
	GetType(ctx context.Context, name string) (cty.Type, error)
}

// InMemory is a map-backed Store.
type InMemory struct {
	mu   sync.RWMutex
	vars map[string]*entry
}

type entry struct {
	compiled *template.Template
	typ      cty.Type
}

// NewInMemory creates an empty variable store.
func NewInMemory() *InMemory {
	return &InMemory{vars: make(map[string]*entry)}
}

// Define registers a variable under name. The value type is taken from the
// template's output boundary.
func (s *InMemory) Define(name string, compiled *template.Template) error {
	typ, ok := compiled.OutputType()
	if !ok {
		return fmt.Errorf("variable %q: template %s has no output boundary", name, compiled)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vars[name]; exists {
		return fmt.Errorf("variable %q already defined", name)
	}
	s.vars[name] = &entry{compiled: compiled, typ: typ}
	return nil
}

// Remove drops a variable.
func (s *InMemory) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vars[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	delete(s.vars, name)
	return nil
}

// Rename moves a variable to a new name.
func (s *InMemory) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.vars[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, oldName)
	}
	if _, taken := s.vars[newName]; taken {
		return fmt.Errorf("variable %q already defined", newName)
	}
	delete(s.vars, oldName)
	s.vars[newName] = e
	return nil
}

// Names returns the defined variable names in sorted order.
func (s *InMemory) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetCompiled implements Store.
func (s *InMemory) GetCompiled(_ context.Context, name string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return e.compiled, nil
}

// GetType implements Store.
func (s *InMemory) GetType(_ context.Context, name string) (cty.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vars[name]
	if !ok {
		return cty.NilType, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return e.typ, nil
}
