// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using ordered slices,
// an id index and a mutex for thread-safe concurrent access.
type Store struct {
	mu      sync.RWMutex
	nodes   []node.Node
	edges   []node.Edge
	nodeIdx map[string]int // Key: node ID, Value: position in nodes
	edgeIdx map[string]int // Key: edge ID, Value: position in edges
}

// New creates a topology store seeded with a single start node.
func New(start node.Node) (topologystore.Store, error) {
	if !start.IsStart {
		return nil, &node.StructuralError{Op: "new", ID: start.ID, Reason: "seed node must be the start node"}
	}
	return NewFromSnapshot(topologystore.Snapshot{Nodes: []node.Node{start}})
}

// NewFromSnapshot creates a topology store holding a copy of snap.
func NewFromSnapshot(snap topologystore.Snapshot) (topologystore.Store, error) {
	s := &Store{}
	if err := s.Replace(context.Background(), snap); err != nil {
		return nil, err
	}
	return s, nil
}

// Node retrieves a single node by id.
func (s *Store) Node(ctx context.Context, id string) (node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.nodeIdx[id]
	if !ok {
		return node.Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// StartNode returns the start node.
func (s *Store) StartNode(ctx context.Context) node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.nodes {
		if n.IsStart {
			return n.Clone()
		}
	}
	// Unreachable while the store invariants hold.
	panic("inmemorytopology: graph has no start node")
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes(ctx context.Context) []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns all edges in insertion order.
func (s *Store) Edges(ctx context.Context) []node.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Edge retrieves a single edge by id.
func (s *Store) Edge(ctx context.Context, id string) (node.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.edgeIdx[id]
	if !ok {
		return node.Edge{}, false
	}
	return s.edges[i], true
}

// AddNode appends a node to the store.
func (s *Store) AddNode(ctx context.Context, n node.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodeIdx[n.ID]; exists {
		return &node.StructuralError{Op: "add node", ID: n.ID, Reason: "node id already exists"}
	}
	if n.IsStart {
		return &node.StructuralError{Op: "add node", ID: n.ID, Reason: "graph already has a start node"}
	}
	s.nodeIdx[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n.Clone())
	return nil
}

// AddEdge appends an edge to the store.
func (s *Store) AddEdge(ctx context.Context, e node.Edge) (node.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, exists := s.edgeIdx[e.ID]; exists {
		// Adding the same edge twice is not an error, it's idempotent.
		if old := s.edges[i]; old != e {
			return node.Edge{}, &node.StructuralError{Op: "add edge", ID: e.ID, Reason: fmt.Sprintf("id already used by edge '%s' -> '%s'", old.Source, old.Target)}
		}
		return s.edges[i], nil
	}
	if _, exists := s.nodeIdx[e.Source]; !exists {
		return node.Edge{}, &node.StructuralError{Op: "add edge", ID: e.ID, Reason: fmt.Sprintf("source node '%s' not found", e.Source)}
	}
	if _, exists := s.nodeIdx[e.Target]; !exists {
		return node.Edge{}, &node.StructuralError{Op: "add edge", ID: e.ID, Reason: fmt.Sprintf("target node '%s' not found", e.Target)}
	}
	s.edgeIdx[e.ID] = len(s.edges)
	s.edges = append(s.edges, e)
	return e, nil
}

// RemoveEdge deletes an edge by id.
func (s *Store) RemoveEdge(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.edgeIdx[id]
	if !ok {
		return false
	}
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	s.reindex()
	return true
}

// UpdateNode applies fn to a copy of a node and stores the result.
func (s *Store) UpdateNode(ctx context.Context, id string, fn func(*node.Node) error) (node.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nodeIdx[id]
	if !ok {
		return node.Node{}, &node.StructuralError{Op: "update node", ID: id, Reason: "node not found"}
	}
	current := s.nodes[i]
	updated := current.Clone()
	if err := fn(&updated); err != nil {
		return node.Node{}, err
	}
	if updated.ID != current.ID || updated.Kind != current.Kind || updated.IsStart != current.IsStart {
		return node.Node{}, &node.StructuralError{Op: "update node", ID: id, Reason: "id, kind and start flag are immutable"}
	}
	if err := updated.Validate(); err != nil {
		return node.Node{}, err
	}
	s.nodes[i] = updated
	return updated.Clone(), nil
}

// Snapshot returns a deep copy of the graph.
func (s *Store) Snapshot(ctx context.Context) topologystore.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return topologystore.Snapshot{Nodes: s.nodes, Edges: s.edges}.Clone()
}

// Replace swaps the whole graph for a validated copy of snap.
func (s *Store) Replace(ctx context.Context, snap topologystore.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	c := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = c.Nodes
	s.edges = c.Edges
	s.reindex()
	return nil
}

// reindex rebuilds the id indexes. Callers must hold the write lock.
func (s *Store) reindex() {
	s.nodeIdx = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.nodeIdx[n.ID] = i
	}
	s.edgeIdx = make(map[string]int, len(s.edges))
	for i, e := range s.edges {
		s.edgeIdx[e.ID] = i
	}
}
