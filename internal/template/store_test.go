package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddAndGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	tpl := &Template{Owner: "plots", Name: "line"}
	require.NoError(t, s.Add(tpl))

	got, err := s.Get("plots", "line")
	require.NoError(t, err)
	assert.Same(t, tpl, got)

	_, err = s.Get("plots", "missing")
	require.ErrorIs(t, err, ErrUnknownTemplate)

	require.Error(t, s.Add(tpl), "duplicate registration must fail")
}

func TestStore_Resolve(t *testing.T) {
	t.Parallel()

	s := NewStore()
	tpl := &Template{Owner: "plots", Name: "line"}
	require.NoError(t, s.Add(tpl))

	got, err := s.Resolve("plots:line")
	require.NoError(t, err)
	assert.Same(t, tpl, got)

	_, err = s.Resolve("line")
	require.ErrorIs(t, err, ErrUnknownTemplate, "bare references are rejected")
}

func TestStore_LoadCaches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := writeTemplateFile(t, lineTemplate)
	s := NewStore()

	first, err := s.Load(ctx, path)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second load of the same path returns the cached parse; it must not
	// trip the duplicate-registration check.
	second, err := s.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first[0], second[0])
}

func TestStore_LoadDir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.hcl"), []byte(lineTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	s := NewStore()
	require.NoError(t, s.LoadDir(ctx, dir))

	_, err := s.Get("plots", "line")
	require.NoError(t, err)
}
