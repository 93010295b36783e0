package graph

// Point is a 2D position assigned by the layout stage.
type Point struct {
	X, Y float64
}

// LayoutNode is the per-node information handed to a LayoutEngine: the
// node's identity, its port counts, and its size.
type LayoutNode struct {
	ID      NodeID
	Inputs  int
	Outputs int
	Width   float64
	Height  float64
}

// LayoutEdge is one directed connection handed to a LayoutEngine.
type LayoutEdge struct {
	Source NodeID
	Target NodeID
}

// A LayoutEngine assigns 2D positions to the full node set of a pending
// commit. The store folds the returned positions back into the commit:
// nodes inherited from the parent version get Reposition edits, staged
// nodes are placed directly.
type LayoutEngine interface {
	Layout(nodes []LayoutNode, edges []LayoutEdge) map[NodeID]Point
}

// SizeFunc reports the drawn size of a node for layout purposes.
type SizeFunc func(*Node) (width, height float64)

// defaultSize is used when the store has no SizeFunc configured.
func defaultSize(*Node) (float64, float64) { return 130, 50 }
