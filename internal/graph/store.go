package graph

import (
	"fmt"
	"sync"
)

// Store owns a lineage of graph versions and allocates all node, edge and
// version identities for it. Identity allocation is monotonic and
// collision-free for the store's lifetime.
//
// The store follows a single-writer model: one edit log is expected to be
// in flight at a time, and a commit fails with ErrCommitConflict when
// another commit advanced the store in the meantime.
type Store struct {
	mu          sync.Mutex
	versions    map[VersionID]*Version
	tags        map[string]VersionID
	nextNode    NodeID
	nextEdge    EdgeID
	nextVersion VersionID
	revision    uint64

	layout LayoutEngine
	size   SizeFunc
}

// NewStore creates a store containing only the empty root version. The
// layout engine may be nil, in which case commits skip the layout stage.
func NewStore(layout LayoutEngine) *Store {
	s := &Store{
		versions: make(map[VersionID]*Version),
		tags:     make(map[string]VersionID),
		layout:   layout,
		size:     defaultSize,
	}
	root := &Version{
		id:     RootVersion,
		parent: RootVersion,
		nodes:  make(map[NodeID]*Node),
		edges:  make(map[EdgeID]*Edge),
	}
	s.versions[RootVersion] = root
	s.nextVersion = RootVersion + 1
	return s
}

// SetSizeFunc replaces the node size function used by the layout stage.
func (s *Store) SetSizeFunc(size SizeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size != nil {
		s.size = size
	}
}

// Root returns the empty root version.
func (s *Store) Root() *Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[RootVersion]
}

// Version returns a committed version by id.
func (s *Store) Version(id VersionID) (*Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	return v, ok
}

// SetTag tags a committed version as a materialized recipe instance. A tag
// maps to exactly one version; re-tagging moves it.
func (s *Store) SetTag(id VersionID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	if !ok {
		return fmt.Errorf("tag %q: no version %d", tag, id)
	}
	if prev, ok := s.tags[tag]; ok {
		s.versions[prev].tag = ""
	}
	s.tags[tag] = id
	v.tag = tag
	return nil
}

// Tagged returns the version currently carrying the given tag.
func (s *Store) Tagged(tag string) (*Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tags[tag]
	if !ok {
		return nil, false
	}
	return s.versions[id], true
}

// Begin opens an edit log on top of the given base version. Staged edits
// are buffered in memory and invisible to other readers until Commit.
func (s *Store) Begin(base *Version) *Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Log{
		store:        s,
		base:         base,
		revision:     s.revision,
		addedNodes:   make(map[NodeID]*Node),
		addedEdges:   make(map[EdgeID]*Edge),
		updatedNodes: make(map[NodeID]*Node),
		deletedNodes: make(map[NodeID]bool),
		deletedEdges: make(map[EdgeID]bool),
	}
}

func (s *Store) allocNode() NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNode++
	return s.nextNode
}

func (s *Store) allocEdge() EdgeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEdge++
	return s.nextEdge
}
