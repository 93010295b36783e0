package compiler

import (
	"context"
	"fmt"

	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/recipe"
)

// Update patches the compiled graph to match a new recipe of the same
// plot. Bindings are reconciled per port as value-equality multisets: a
// new binding equal to an old one reuses the old wiring verbatim (the
// first unmatched equal binding in order), a new binding with no match is
// wired fresh against the recorded plot anchors, and an old binding with
// no match is removed together with everything reachable from it outside
// the plot. An update that matches everything stages nothing and returns
// the prior result unchanged, without committing.
func (c *Compiler) Update(ctx context.Context, prior *CompiledGraph, next *recipe.Recipe) (*CompiledGraph, error) {
	logger := ctxlog.FromContext(ctx)

	if prior.Recipe.Plot.Owner != next.Plot.Owner || prior.Recipe.Plot.Name != next.Plot.Name {
		return nil, fmt.Errorf("%w: %s vs %s", ErrTemplateMismatch, prior.Recipe.Plot, next.Plot)
	}
	if err := c.validate(ctx, next); err != nil {
		return nil, err
	}

	base, ok := c.Store.Version(prior.Version)
	if !ok {
		return nil, fmt.Errorf("update: version %d not in store", prior.Version)
	}
	log := c.Store.Begin(base)

	// Every edge a binding ever put into the plot is off limits for the
	// removal traversal: deletions may consume a binding's own subgraph
	// but never cross into the plot or a surviving binding through it.
	protected := make(map[graph.EdgeID]bool)
	for _, groups := range prior.ConnMap {
		for _, group := range groups {
			for _, id := range group {
				protected[id] = true
			}
		}
	}

	connMap := make(map[string][][]graph.EdgeID)
	var added, removed []string

	for _, port := range next.Plot.Ports {
		name := port.Name
		oldBindings := prior.Recipe.Parameters[name]
		oldGroups := prior.ConnMap[name]
		matched := make([]bool, len(oldBindings))

		for _, nb := range next.Parameters[name] {
			reused := false
			for i, ob := range oldBindings {
				if !matched[i] && ob.Equal(nb) {
					matched[i] = true
					connMap[name] = append(connMap[name], oldGroups[i])
					reused = true
					break
				}
			}
			if reused {
				continue
			}
			anchors, ok := prior.anchors[name]
			if !ok {
				return nil, fmt.Errorf("update: no recorded anchors for port %q; recompile the recipe", name)
			}
			group, err := c.wireBinding(ctx, log, port, nb, anchors)
			if err != nil {
				return nil, err
			}
			connMap[name] = append(connMap[name], group)
			added = append(added, name)
		}

		for i, ob := range oldBindings {
			if matched[i] {
				continue
			}
			var seeds []graph.NodeID
			for _, id := range oldGroups[i] {
				if e, ok := log.Edge(id); ok {
					seeds = append(seeds, e.Source)
				}
			}
			log.DeleteLinked(seeds, nil, func(e *graph.Edge) bool {
				return !protected[e.ID]
			}, graph.Unbounded)
			removed = append(removed, name)
			logger.Debug("Removed binding.", "port", name, "binding", ob.Key())
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return prior, nil
	}

	v, err := log.Commit(ctx, describeUpdate(added, removed))
	if err != nil {
		return nil, err
	}
	if err := c.Store.SetTag(v.ID(), fmt.Sprintf("plot:%s#%d", next.Plot, v.ID())); err != nil {
		return nil, err
	}

	portMap := make(map[string][]graph.Anchor)
	for _, port := range next.Plot.Ports {
		if !port.Optional || len(next.Parameters[port.Name]) > 0 {
			if a, ok := prior.anchors[port.Name]; ok {
				portMap[port.Name] = a
			}
		}
	}

	return &CompiledGraph{
		Version: v.ID(),
		Recipe:  next,
		ConnMap: connMap,
		PortMap: portMap,
		anchors: prior.anchors,
	}, nil
}
