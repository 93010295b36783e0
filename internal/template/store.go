package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnknownTemplate is returned when a template reference does not match
// anything in the store.
var ErrUnknownTemplate = errors.New("unknown template")

type refKey struct {
	owner string
	tag   string
}

// Store caches templates by source path and indexes them by (owner, tag).
// Templates in the store are treated as read-only.
type Store struct {
	mu     sync.RWMutex
	byPath map[string][]*Template
	byRef  map[refKey]*Template
}

// NewStore creates an empty template store.
func NewStore() *Store {
	return &Store{
		byPath: make(map[string][]*Template),
		byRef:  make(map[refKey]*Template),
	}
}

// Add registers a template under its owner and name.
func (s *Store) Add(t *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := refKey{owner: t.Owner, tag: t.Name}
	if _, ok := s.byRef[key]; ok {
		return fmt.Errorf("template %s already registered", t)
	}
	s.byRef[key] = t
	return nil
}

// Get returns the template registered under (owner, tag).
func (s *Store) Get(owner, tag string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.byRef[refKey{owner: owner, tag: tag}]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s:%s", ErrUnknownTemplate, owner, tag)
}

// Resolve returns the template for an "owner:tag" reference string.
func (s *Store) Resolve(ref string) (*Template, error) {
	owner, tag, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("%w: reference %q must be \"owner:tag\"", ErrUnknownTemplate, ref)
	}
	return s.Get(owner, tag)
}

// Load parses the templates in the given file, registers them, and caches
// the result so repeated loads of one path are free.
func (s *Store) Load(ctx context.Context, path string) ([]*Template, error) {
	s.mu.RLock()
	cached, ok := s.byPath[path]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	templates, err := ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range templates {
		key := refKey{owner: t.Owner, tag: t.Name}
		if _, exists := s.byRef[key]; exists {
			return nil, fmt.Errorf("template %s already registered", t)
		}
		s.byRef[key] = t
	}
	s.byPath[path] = templates
	return templates, nil
}

// LoadDir loads every .hcl template file directly under dir.
func (s *Store) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading template directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		if _, err := s.Load(ctx, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
