package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	config, shouldExit, err := Parse([]string{"recipe.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "recipe.hcl", config.RecipePath)
	assert.Equal(t, "manifests", config.ManifestsPath)
	assert.Equal(t, "templates", config.TemplatesPath)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel)
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	config, shouldExit, err := Parse([]string{
		"-manifests", "defs",
		"-templates", "tpl",
		"-log-format", "json",
		"-log-level", "DEBUG",
		"plot.hcl",
	}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "plot.hcl", config.RecipePath)
	assert.Equal(t, "defs", config.ManifestsPath)
	assert.Equal(t, "tpl", config.TemplatesPath)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "debug", config.LogLevel, "levels are case-insensitive")
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	config, shouldExit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.True(t, strings.Contains(out.String(), "Usage:"))
}

func TestParse_InvalidOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{"bad log format", []string{"-log-format", "yaml", "recipe.hcl"}},
		{"bad log level", []string{"-log-level", "loud", "recipe.hcl"}},
		{"unknown flag", []string{"-wat", "recipe.hcl"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
