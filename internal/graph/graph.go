// Package graph provides a facade over the two stores that make up a chain
// graph: the topology store (nodes and edges) and the overlay store (run
// status, outputs, highlight and selection).
//
//	┌─────────────────────────────────────┐
//	│            Graph Facade             │
//	│  (executor, editor and API talk to  │
//	│   this, never to both stores)       │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │  Overlay   │
//	  │   Store    │  │   Store    │
//	  │ (Structure)│  │  (State)   │
//	  └────────────┘  └────────────┘
//
// All methods are thread-safe by delegation to the stores.
package graph

import (
	"context"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodestore"
	"github.com/vk/chaingrid/internal/topologystore"
)

// Manager is the reference Graph implementation.
type Manager struct {
	topology topologystore.Store
	overlay  nodestore.Store
}

// New creates a new graph manager over the given stores.
func New(ts topologystore.Store, ns nodestore.Store) Graph {
	return &Manager{topology: ts, overlay: ns}
}

func (m *Manager) Topology() topologystore.Store { return m.topology }
func (m *Manager) Overlay() nodestore.Store      { return m.overlay }

func (m *Manager) Node(ctx context.Context, id string) (node.Node, bool) {
	return m.topology.Node(ctx, id)
}

func (m *Manager) StartNode(ctx context.Context) node.Node {
	return m.topology.StartNode(ctx)
}

func (m *Manager) Snapshot(ctx context.Context) topologystore.Snapshot {
	return m.topology.Snapshot(ctx)
}

func (m *Manager) NodeStatus(ctx context.Context, id string) node.Status {
	status, err := m.overlay.GetStatus(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to read node status.", "nodeID", id, "error", err)
		return node.StatusPending
	}
	return status
}

func (m *Manager) Highlight(ctx context.Context, id string) error {
	return m.overlay.SetHighlighted(ctx, id, true)
}

func (m *Manager) ResetRun(ctx context.Context) error {
	if err := m.overlay.ClearHighlights(ctx); err != nil {
		return err
	}
	return m.overlay.ResetRun(ctx)
}

func (m *Manager) MarkRunning(ctx context.Context, id string) error {
	ctxlog.FromContext(ctx).Debug("Marking node as running.", "nodeID", id)
	return m.overlay.SetStatus(ctx, id, node.StatusRunning)
}

func (m *Manager) MarkCompleted(ctx context.Context, id string, output any) error {
	ctxlog.FromContext(ctx).Debug("Marking node as completed.", "nodeID", id)
	if err := m.overlay.SetOutput(ctx, id, output); err != nil {
		return err
	}
	return m.overlay.SetStatus(ctx, id, node.StatusCompleted)
}

func (m *Manager) MarkFailed(ctx context.Context, id string, nodeErr error, output any) error {
	ctxlog.FromContext(ctx).Debug("Marking node as failed.", "nodeID", id, "error", nodeErr)
	if output != nil {
		if err := m.overlay.SetOutput(ctx, id, output); err != nil {
			return err
		}
	}
	if err := m.overlay.SetError(ctx, id, nodeErr); err != nil {
		return err
	}
	return m.overlay.SetStatus(ctx, id, node.StatusFailed)
}

func (m *Manager) MarkPassed(ctx context.Context, id string) error {
	ctxlog.FromContext(ctx).Debug("Marking node as passed.", "nodeID", id)
	return m.overlay.SetStatus(ctx, id, node.StatusPassed)
}

func (m *Manager) MarkBlocked(ctx context.Context, id string, reason error) error {
	ctxlog.FromContext(ctx).Debug("Marking node as blocked.", "nodeID", id, "reason", reason)
	if reason != nil {
		if err := m.overlay.SetError(ctx, id, reason); err != nil {
			return err
		}
	}
	return m.overlay.SetStatus(ctx, id, node.StatusBlocked)
}
