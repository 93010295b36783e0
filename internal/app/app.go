package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chaosphere2112/dat/internal/compiler"
	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/layout"
	"github.com/chaosphere2112/dat/internal/recipe"
	"github.com/chaosphere2112/dat/internal/template"
	"github.com/chaosphere2112/dat/internal/typedesc"
	"github.com/chaosphere2112/dat/internal/vars"
)

// locationTypeRef names the node type synthesized next to unplaced display
// nodes, when the manifests declare it.
const locationTypeRef = "dat:cell-location"

// variableOwner is the template owner under which variables are loaded.
const variableOwner = "var"

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	types     *typedesc.Registry
	templates *template.Store
	store     *graph.Store
	compiler  *compiler.Compiler
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, node-type
// registry and template store.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	types := typedesc.NewRegistry()
	if err := loadPath(ctx, cfg.ManifestsPath, types.LoadFile, types.LoadDir); err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load node-type manifests: %w", err))
	}
	logger.Debug("Node-type manifests loaded.")

	templates := template.NewStore()
	loadTemplates := func(ctx context.Context, path string) error {
		_, err := templates.Load(ctx, path)
		return err
	}
	if err := loadPath(ctx, cfg.TemplatesPath, loadTemplates, templates.LoadDir); err != nil {
		panic(fmt.Errorf("failed to load templates: %w", err))
	}
	logger.Debug("Templates loaded.")

	store := graph.NewStore(&layout.Layered{})

	var locationType any
	if _, err := types.Resolve(locationTypeRef); err == nil {
		locationType = locationTypeRef
	}

	return &App{
		outW:      outW,
		logger:    logger,
		types:     types,
		templates: templates,
		store:     store,
		compiler: &compiler.Compiler{
			Store:        store,
			Types:        types,
			Variables:    &vars.TemplateSource{Templates: templates, Owner: variableOwner},
			LocationType: locationType,
		},
	}
}

// Compiler returns the application's compiler. This is primarily for
// testing.
func (a *App) Compiler() *compiler.Compiler {
	return a.compiler
}

// Run compiles the configured recipe and reports the committed version.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	r, err := recipe.ParseFile(ctx, cfg.RecipePath, a.templates.Resolve)
	if err != nil {
		return err
	}
	a.logger.Debug("Recipe parsed.", "plot", r.Plot.String())

	compiled, err := a.compiler.Compile(ctx, r)
	if err != nil {
		return err
	}

	v, _ := a.store.Version(compiled.Version)
	fmt.Fprintf(a.outW, "%s: version %d (%d nodes, %d edges)\n",
		v.Description(), compiled.Version, v.NodeCount(), v.EdgeCount())
	return nil
}

// loadPath dispatches a manifest or template path to the file or directory
// loader depending on what it points at.
func loadPath(ctx context.Context, path string, loadFile, loadDir func(context.Context, string) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return loadDir(ctx, path)
	}
	return loadFile(ctx, path)
}
