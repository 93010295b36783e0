package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/chaosphere2112/dat/internal/ctxlog"
	"github.com/chaosphere2112/dat/internal/typedesc"
)

var (
	// ErrCommitConflict means another commit advanced the store between
	// Begin and Commit. The whole compile or update should be retried
	// against the latest version.
	ErrCommitConflict = errors.New("commit conflict")

	// ErrTypeMismatch means an edge or parameter value violates the
	// declared port type.
	ErrTypeMismatch = errors.New("incompatible port types")
)

// Edit is one entry of the append-only edit log.
type Edit interface{ isEdit() }

// AddNodeEdit stages a new node.
type AddNodeEdit struct{ Node *Node }

// AddEdgeEdit stages a new edge.
type AddEdgeEdit struct{ Edge *Edge }

// DeleteNodeEdit stages the removal of a node.
type DeleteNodeEdit struct{ ID NodeID }

// DeleteEdgeEdit stages the removal of an edge.
type DeleteEdgeEdit struct{ ID EdgeID }

// RepositionEdit stages a node move.
type RepositionEdit struct {
	ID   NodeID
	X, Y float64
}

// SetParamEdit stages a parameter change on a node's input port.
type SetParamEdit struct {
	ID     NodeID
	Port   string
	Values []cty.Value
}

func (AddNodeEdit) isEdit()    {}
func (AddEdgeEdit) isEdit()    {}
func (DeleteNodeEdit) isEdit() {}
func (DeleteEdgeEdit) isEdit() {}
func (RepositionEdit) isEdit() {}
func (SetParamEdit) isEdit()   {}

// Log buffers structural edits against a base version. Edits are appended
// in dependency order (an edge's endpoints must be inherited or staged
// before the edge), are visible to the log's own readers immediately, and
// become a new Version only through one atomic Commit. A log that is
// dropped without committing leaves no trace.
type Log struct {
	store    *Store
	base     *Version
	revision uint64
	edits    []Edit

	addedNodes   map[NodeID]*Node
	addedEdges   map[EdgeID]*Edge
	updatedNodes map[NodeID]*Node
	deletedNodes map[NodeID]bool
	deletedEdges map[EdgeID]bool

	committed bool
}

// Base returns the version the log was opened on.
func (l *Log) Base() *Version { return l.base }

// Edits returns the staged edits in append order.
func (l *Log) Edits() []Edit {
	return append([]Edit(nil), l.edits...)
}

// AddNode stages a new node of the given type and returns it. The caller
// may fill Params before the commit via SetParam.
func (l *Log) AddNode(desc *typedesc.Descriptor) *Node {
	n := &Node{ID: l.store.allocNode(), Type: desc}
	l.addedNodes[n.ID] = n
	l.edits = append(l.edits, AddNodeEdit{Node: n})
	return n
}

// CopyNode stages a copy of src under a fresh identity. Parameters are
// deep-copied; the copy is owned by this log's destination graph.
func (l *Log) CopyNode(src *Node) *Node {
	n := src.clone()
	n.ID = l.store.allocNode()
	l.addedNodes[n.ID] = n
	l.edits = append(l.edits, AddNodeEdit{Node: n})
	return n
}

// Connect stages a directed edge between two ports. Both endpoints must be
// inherited from the base version or staged earlier in this log, the named
// ports must exist on the endpoint types, and the target port's type must
// be the same as or a supertype of the source port's type.
func (l *Log) Connect(source NodeID, sourcePort string, target NodeID, targetPort string) (EdgeID, error) {
	src, ok := l.Node(source)
	if !ok {
		return 0, fmt.Errorf("connect: source node %d not present", source)
	}
	dst, ok := l.Node(target)
	if !ok {
		return 0, fmt.Errorf("connect: target node %d not present", target)
	}
	out, err := src.Type.Output(sourcePort)
	if err != nil {
		return 0, err
	}
	in, err := dst.Type.Input(targetPort)
	if err != nil {
		return 0, err
	}
	if !typedesc.AssignableTo(out.Type, in.Type) {
		return 0, fmt.Errorf("%w: %s.%s (%s) -> %s.%s (%s)", ErrTypeMismatch,
			src.Type, sourcePort, out.Type.FriendlyName(),
			dst.Type, targetPort, in.Type.FriendlyName())
	}
	e := &Edge{
		ID:         l.store.allocEdge(),
		Source:     source,
		SourcePort: sourcePort,
		Target:     target,
		TargetPort: targetPort,
	}
	l.addedEdges[e.ID] = e
	l.edits = append(l.edits, AddEdgeEdit{Edge: e})
	return e.ID, nil
}

// SetParam stages the replacement of the values attached to one of a
// node's input ports.
func (l *Log) SetParam(id NodeID, port string, values []cty.Value) error {
	n, err := l.writable(id)
	if err != nil {
		return err
	}
	p, err := n.Type.Input(port)
	if err != nil {
		return err
	}
	for _, v := range values {
		if !typedesc.AssignableTo(v.Type(), p.Type) {
			return fmt.Errorf("%w: value of type %s for %s.%s (%s)", ErrTypeMismatch,
				v.Type().FriendlyName(), n.Type, port, p.Type.FriendlyName())
		}
	}
	if n.Params == nil {
		n.Params = make(map[string][]cty.Value)
	}
	copied := append([]cty.Value(nil), values...)
	n.Params[port] = copied
	l.edits = append(l.edits, SetParamEdit{ID: id, Port: port, Values: copied})
	return nil
}

// Reposition stages a node move.
func (l *Log) Reposition(id NodeID, x, y float64) error {
	n, err := l.writable(id)
	if err != nil {
		return err
	}
	n.X, n.Y = x, y
	l.edits = append(l.edits, RepositionEdit{ID: id, X: x, Y: y})
	return nil
}

// DeleteNode stages the removal of a node. Edges referencing it must be
// deleted in the same commit; DeleteLinked does this automatically.
func (l *Log) DeleteNode(id NodeID) error {
	if _, ok := l.Node(id); !ok {
		return fmt.Errorf("delete: node %d not present", id)
	}
	l.deletedNodes[id] = true
	l.edits = append(l.edits, DeleteNodeEdit{ID: id})
	return nil
}

// DeleteEdge stages the removal of an edge.
func (l *Log) DeleteEdge(id EdgeID) error {
	if _, ok := l.Edge(id); !ok {
		return fmt.Errorf("delete: edge %d not present", id)
	}
	l.deletedEdges[id] = true
	l.edits = append(l.edits, DeleteEdgeEdit{ID: id})
	return nil
}

// Node returns a node from the pending view: the base version plus staged
// additions and updates, minus staged deletions.
func (l *Log) Node(id NodeID) (*Node, bool) {
	if l.deletedNodes[id] {
		return nil, false
	}
	if n, ok := l.updatedNodes[id]; ok {
		return n, true
	}
	if n, ok := l.addedNodes[id]; ok {
		return n, true
	}
	n, ok := l.base.nodes[id]
	return n, ok
}

// Edge returns an edge from the pending view.
func (l *Log) Edge(id EdgeID) (*Edge, bool) {
	if l.deletedEdges[id] {
		return nil, false
	}
	if e, ok := l.addedEdges[id]; ok {
		return e, true
	}
	e, ok := l.base.edges[id]
	return e, ok
}

// Nodes returns the pending view's nodes ordered by id.
func (l *Log) Nodes() []*Node {
	nodes := make([]*Node, 0, len(l.base.nodes)+len(l.addedNodes))
	for id := range l.base.nodes {
		if n, ok := l.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	for id := range l.addedNodes {
		if n, ok := l.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns the pending view's edges ordered by id.
func (l *Log) Edges() []*Edge {
	edges := make([]*Edge, 0, len(l.base.edges)+len(l.addedEdges))
	for id := range l.base.edges {
		if e, ok := l.Edge(id); ok {
			edges = append(edges, e)
		}
	}
	for id := range l.addedEdges {
		if e, ok := l.Edge(id); ok {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// writable returns a node the log may mutate, cloning inherited nodes into
// the update overlay on first touch.
func (l *Log) writable(id NodeID) (*Node, error) {
	if l.deletedNodes[id] {
		return nil, fmt.Errorf("node %d is staged for deletion", id)
	}
	if n, ok := l.updatedNodes[id]; ok {
		return n, nil
	}
	if n, ok := l.addedNodes[id]; ok {
		return n, nil
	}
	if n, ok := l.base.nodes[id]; ok {
		c := n.clone()
		l.updatedNodes[id] = c
		return c, nil
	}
	return nil, fmt.Errorf("node %d not present", id)
}

// Commit atomically materializes the staged edits as a new version: the
// base version's surviving nodes and edges, plus additions, minus
// deletions. It fails with ErrCommitConflict if the store advanced since
// Begin, and with no effect if the result would contain a dangling edge.
// The layout stage runs over the full pending node set before the version
// is sealed.
func (l *Log) Commit(ctx context.Context, description string) (*Version, error) {
	if l.committed {
		return nil, fmt.Errorf("edit log already committed")
	}
	logger := ctxlog.FromContext(ctx)

	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revision != l.revision {
		return nil, fmt.Errorf("%w: version %d superseded while editing", ErrCommitConflict, l.base.id)
	}

	nodes := make(map[NodeID]*Node, len(l.base.nodes)+len(l.addedNodes))
	for id, n := range l.base.nodes {
		if l.deletedNodes[id] {
			continue
		}
		if u, ok := l.updatedNodes[id]; ok {
			nodes[id] = u
		} else {
			nodes[id] = n.clone()
		}
	}
	for id, n := range l.addedNodes {
		if l.deletedNodes[id] {
			continue
		}
		nodes[id] = n
	}

	edges := make(map[EdgeID]*Edge, len(l.base.edges)+len(l.addedEdges))
	for id, e := range l.base.edges {
		if !l.deletedEdges[id] {
			edges[id] = e
		}
	}
	for id, e := range l.addedEdges {
		if !l.deletedEdges[id] {
			edges[id] = e
		}
	}

	for _, e := range edges {
		if _, ok := nodes[e.Source]; !ok {
			return nil, fmt.Errorf("commit: edge %d dangles on deleted source node %d", e.ID, e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			return nil, fmt.Errorf("commit: edge %d dangles on deleted target node %d", e.ID, e.Target)
		}
	}

	if s.layout != nil && len(nodes) > 0 {
		l.applyLayout(nodes, edges)
	}

	v := &Version{
		id:          s.nextVersion,
		parent:      l.base.id,
		description: description,
		nodes:       nodes,
		edges:       edges,
	}
	s.versions[v.id] = v
	s.nextVersion++
	s.revision++
	l.committed = true

	logger.Debug("Committed graph version.",
		"version", v.id, "parent", v.parent,
		"nodes", len(nodes), "edges", len(edges),
		"description", description)
	return v, nil
}

// applyLayout runs the layout engine over the pending node set and folds
// the positions back in: inherited nodes that moved get Reposition edits,
// staged nodes are placed directly. Called with the store lock held.
func (l *Log) applyLayout(nodes map[NodeID]*Node, edges map[EdgeID]*Edge) {
	s := l.store

	lnodes := make([]LayoutNode, 0, len(nodes))
	for _, n := range nodes {
		w, h := s.size(n)
		lnodes = append(lnodes, LayoutNode{
			ID:      n.ID,
			Inputs:  len(n.Type.Inputs),
			Outputs: len(n.Type.Outputs),
			Width:   w,
			Height:  h,
		})
	}
	sort.Slice(lnodes, func(i, j int) bool { return lnodes[i].ID < lnodes[j].ID })

	ledges := make([]LayoutEdge, 0, len(edges))
	for _, e := range edges {
		ledges = append(ledges, LayoutEdge{Source: e.Source, Target: e.Target})
	}
	sort.Slice(ledges, func(i, j int) bool {
		if ledges[i].Source != ledges[j].Source {
			return ledges[i].Source < ledges[j].Source
		}
		return ledges[i].Target < ledges[j].Target
	})

	positions := s.layout.Layout(lnodes, ledges)
	for id, pos := range positions {
		n, ok := nodes[id]
		if !ok || (n.X == pos.X && n.Y == pos.Y) {
			continue
		}
		_, inherited := l.base.nodes[id]
		if inherited {
			l.edits = append(l.edits, RepositionEdit{ID: id, X: pos.X, Y: pos.Y})
		}
		n.X, n.Y = pos.X, pos.Y
	}
}
