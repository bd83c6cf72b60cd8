// Package topologystore defines the interface for storing the structure of a
// chain graph: its nodes and directed edges.
//
// The topology store is the single source of truth for what the graph looks
// like. It does NOT hold anything that changes while a chain runs (status,
// outputs, highlight, selection); that belongs to nodestore.Store.
//
// Implementations keep nodes and edges in insertion order. Edge order is
// observable: the executor visits children in the order their edges were
// added.
//
// Every mutation must leave the graph satisfying these invariants:
//   - exactly one node is marked as the start node
//   - node ids are unique and edge ids are unique
//   - every edge references nodes that exist
//
// Self-loop edges are allowed when created explicitly.
package topologystore

import (
	"context"

	"github.com/vk/chaingrid/internal/node"
)

// Store is the interface for managing the structure of a chain graph.
//
// Implementations MUST be safe for concurrent use. Values returned from a
// Store are copies; mutating them has no effect on the stored graph.
type Store interface {
	// Node returns the node with the given id.
	Node(ctx context.Context, id string) (node.Node, bool)

	// StartNode returns the protected start node.
	StartNode(ctx context.Context) node.Node

	// Nodes returns every node in insertion order.
	Nodes(ctx context.Context) []node.Node

	// Edges returns every edge in insertion order.
	Edges(ctx context.Context) []node.Edge

	// Edge returns the edge with the given id.
	Edge(ctx context.Context, id string) (node.Edge, bool)

	// AddNode appends a node. A duplicate id, a second start node or a
	// malformed payload is rejected with a *node.StructuralError.
	AddNode(ctx context.Context, n node.Node) error

	// AddEdge appends an edge and returns the stored edge. Adding an edge
	// whose id already exists with the same endpoints and handles is
	// idempotent and returns the existing edge. An edge with a missing
	// endpoint, or one reusing an id for different endpoints, is rejected
	// with a *node.StructuralError.
	AddEdge(ctx context.Context, e node.Edge) (node.Edge, error)

	// RemoveEdge removes the edge with the given id and reports whether it
	// existed.
	RemoveEdge(ctx context.Context, id string) bool

	// UpdateNode applies fn to a copy of the node and stores the result if
	// fn returns nil. fn may not change the node's id, kind or start flag.
	UpdateNode(ctx context.Context, id string, fn func(*node.Node) error) (node.Node, error)

	// Snapshot returns a deep copy of the whole graph.
	Snapshot(ctx context.Context) Snapshot

	// Replace atomically swaps the whole graph for snap. If snap violates any
	// invariant the store is left unchanged and a *node.StructuralError is
	// returned.
	Replace(ctx context.Context, snap Snapshot) error
}
