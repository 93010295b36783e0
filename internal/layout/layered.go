package layout

import (
	"sort"

	"github.com/chaosphere2112/dat/internal/graph"
)

// Layered assigns positions by longest-path layering: a node's layer is one
// past the deepest layer among its predecessors, nodes within a layer keep
// id order, and the result is centered on the origin. Output depends only
// on the node and edge sets, so repeated commits of the same graph place
// nodes identically.
type Layered struct {
	// XSep and YSep are the gaps between neighbouring nodes. Zero values
	// fall back to 50.
	XSep, YSep float64
}

func (e Layered) separations() (float64, float64) {
	x, y := e.XSep, e.YSep
	if x == 0 {
		x = 50
	}
	if y == 0 {
		y = 50
	}
	return x, y
}

// Layout implements graph.LayoutEngine.
func (e Layered) Layout(nodes []graph.LayoutNode, edges []graph.LayoutEdge) map[graph.NodeID]graph.Point {
	if len(nodes) == 0 {
		return nil
	}
	xsep, ysep := e.separations()

	preds := make(map[graph.NodeID][]graph.NodeID)
	for _, edge := range edges {
		preds[edge.Target] = append(preds[edge.Target], edge.Source)
	}

	// Longest path from any source, memoized. Cycles are not expected in
	// spliced graphs; visiting guards against them anyway.
	layers := make(map[graph.NodeID]int, len(nodes))
	visiting := make(map[graph.NodeID]bool)
	var layerOf func(id graph.NodeID) int
	layerOf = func(id graph.NodeID) int {
		if layer, ok := layers[id]; ok {
			return layer
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		layer := 0
		for _, p := range preds[id] {
			if d := layerOf(p) + 1; d > layer {
				layer = d
			}
		}
		delete(visiting, id)
		layers[id] = layer
		return layer
	}

	byLayer := make(map[int][]graph.LayoutNode)
	maxLayer := 0
	for _, n := range nodes {
		layer := layerOf(n.ID)
		byLayer[layer] = append(byLayer[layer], n)
		if layer > maxLayer {
			maxLayer = layer
		}
	}

	positions := make(map[graph.NodeID]graph.Point, len(nodes))
	y := 0.0
	var sumX, sumY float64
	for layer := 0; layer <= maxLayer; layer++ {
		row := byLayer[layer]
		sort.Slice(row, func(i, j int) bool { return row[i].ID < row[j].ID })

		x := 0.0
		rowHeight := 0.0
		for _, n := range row {
			positions[n.ID] = graph.Point{X: x, Y: y}
			sumX += x
			sumY += y
			x += n.Width + xsep
			if n.Height > rowHeight {
				rowHeight = n.Height
			}
		}
		y += rowHeight + ysep
	}

	// Center the drawing on the origin.
	cx := sumX / float64(len(nodes))
	cy := sumY / float64(len(nodes))
	for id, p := range positions {
		positions[id] = graph.Point{X: p.X - cx, Y: p.Y - cy}
	}
	return positions
}
