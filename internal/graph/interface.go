package graph

import (
	"context"

	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodestore"
	"github.com/vk/chaingrid/internal/topologystore"
)

// Graph is the unified view of a chain graph used by the executor, the
// editor and the API. Structural mutation goes through Topology(); run and
// UI state through the Mark* and Highlight methods.
type Graph interface {
	// Node returns a node by id.
	Node(ctx context.Context, id string) (node.Node, bool)
	// StartNode returns the protected start node.
	StartNode(ctx context.Context) node.Node
	// Snapshot returns a deep copy of the structure.
	Snapshot(ctx context.Context) topologystore.Snapshot
	// View returns the structure joined with overlay state.
	View(ctx context.Context) View

	// NodeStatus returns the status of a node in the latest run.
	NodeStatus(ctx context.Context, id string) node.Status
	// Highlight marks a node as visited in the current run.
	Highlight(ctx context.Context, id string) error
	// ResetRun clears highlights and the artifacts of the previous run.
	ResetRun(ctx context.Context) error

	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, output any) error
	MarkFailed(ctx context.Context, id string, nodeErr error, output any) error
	MarkPassed(ctx context.Context, id string) error
	MarkBlocked(ctx context.Context, id string, reason error) error

	// Topology exposes the structural store.
	Topology() topologystore.Store
	// Overlay exposes the per-node overlay store.
	Overlay() nodestore.Store
}
