package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/graph"
	"github.com/chaosphere2112/dat/internal/recipe"
	"github.com/chaosphere2112/dat/internal/splice"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

// Compile builds the recipe's graph from scratch on top of the store's
// root version. The plot is spliced first, display placement is
// reconciled, then every binding is wired in the plot's port declaration
// order. One commit produces the whole version; a failing compile leaves
// the store untouched.
func (c *Compiler) Compile(ctx context.Context, r *recipe.Recipe) (*CompiledGraph, error) {
	if err := c.validate(ctx, r); err != nil {
		return nil, err
	}

	log := c.Store.Begin(c.Store.Root())

	res, err := splice.Splice(ctx, log, c.Types, r.Plot)
	if err != nil {
		return nil, err
	}
	if err := c.placeDisplays(ctx, log, res.Mapping); err != nil {
		return nil, err
	}

	connMap := make(map[string][][]graph.EdgeID)
	for _, port := range r.Plot.Ports {
		for _, b := range r.Parameters[port.Name] {
			group, err := c.wireBinding(ctx, log, port, b, res.Inputs[port.Name])
			if err != nil {
				return nil, err
			}
			connMap[port.Name] = append(connMap[port.Name], group)
		}
	}

	portMap := make(map[string][]graph.Anchor)
	for _, port := range r.Plot.Ports {
		if !port.Optional || len(r.Parameters[port.Name]) > 0 {
			portMap[port.Name] = res.Inputs[port.Name]
		}
	}

	v, err := log.Commit(ctx, fmt.Sprintf("Created graph for plot %s", r.Plot))
	if err != nil {
		return nil, err
	}
	if err := c.Store.SetTag(v.ID(), fmt.Sprintf("plot:%s#%d", r.Plot, v.ID())); err != nil {
		return nil, err
	}

	return &CompiledGraph{
		Version: v.ID(),
		Recipe:  r,
		ConnMap: connMap,
		PortMap: portMap,
		anchors: res.Inputs,
	}, nil
}

// placeDisplays reconciles display nodes with a placement: a plot whose
// display arrives without a location node gets one synthesized and wired
// into its "location" input. Extra locations or displays are tolerated
// with a warning, matching how a hand-edited plot is treated.
func (c *Compiler) placeDisplays(ctx context.Context, log *graph.Log, mapping map[string]graph.NodeID) error {
	logger := ctxlog.FromContext(ctx)

	var displays, locations []graph.NodeID
	for _, id := range mapping {
		n, ok := log.Node(id)
		if !ok {
			continue
		}
		switch n.Type.Class {
		case typedesc.ClassDisplay:
			displays = append(displays, id)
		case typedesc.ClassLocation:
			locations = append(locations, id)
		}
	}
	sort.Slice(displays, func(i, j int) bool { return displays[i] < displays[j] })
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })

	if len(displays) == 0 {
		logger.Warn("Plot has no display node; nothing to place.")
		return nil
	}
	if len(displays) > 1 {
		logger.Warn("Plot has several display nodes; placing the first.",
			"displays", len(displays))
	}
	display := displays[0]

	if len(locations) > 0 {
		if len(locations) > 1 {
			logger.Warn("Plot has several location nodes; using the first.",
				"locations", len(locations))
		}
		return nil
	}
	if c.LocationType == nil {
		return nil
	}

	desc, err := c.Types.Resolve(c.LocationType)
	if err != nil {
		return fmt.Errorf("location type: %w", err)
	}
	if len(desc.Outputs) == 0 {
		return fmt.Errorf("location type %s has no output port", desc)
	}
	n, ok := log.Node(display)
	if !ok {
		return fmt.Errorf("display node %d not present", display)
	}
	if _, err := n.Type.Input("location"); err != nil {
		logger.Warn("Display node has no location input; leaving it unplaced.",
			"display", n.Type.String())
		return nil
	}

	loc := log.AddNode(desc)
	if _, err := log.Connect(loc.ID, desc.Outputs[0].Name, display, "location"); err != nil {
		return fmt.Errorf("placing display: %w", err)
	}
	return nil
}
