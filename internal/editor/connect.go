package editor

import (
	"context"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
)

// Connection is a user request to link two nodes.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Connect adds the edge described by c. The edge id is derived from its
// endpoints and handles, so connecting the same pair twice returns the
// existing edge. A connection naming a missing node is dropped; ok reports
// whether an edge exists afterwards.
func (e *Editor) Connect(ctx context.Context, c Connection) (edge node.Edge, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	ts := e.graph.Topology()
	if _, found := ts.Node(ctx, c.Source); !found {
		logger.Debug("Dropping connection from a missing node.", "source", c.Source)
		return node.Edge{}, false
	}
	if _, found := ts.Node(ctx, c.Target); !found {
		logger.Debug("Dropping connection to a missing node.", "target", c.Target)
		return node.Edge{}, false
	}

	edge, err := ts.AddEdge(ctx, node.Edge{
		ID:           nodeid.EdgeID(c.Source, c.SourceHandle, c.Target, c.TargetHandle),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
	})
	if err != nil {
		// An endpoint vanished between the checks and the insert.
		logger.Debug("Dropping connection.", "error", err)
		return node.Edge{}, false
	}

	logger.Info("Connected nodes.", "edgeID", edge.ID, "source", edge.Source, "target", edge.Target)
	e.changed(ctx, "connect", nil, []string{edge.ID})
	return edge, true
}

// RemoveEdge deletes one edge and reports whether it existed.
func (e *Editor) RemoveEdge(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.Topology().RemoveEdge(ctx, id) {
		return false
	}
	ctxlog.FromContext(ctx).Info("Removed edge.", "edgeID", id)
	e.changed(ctx, "disconnect", nil, []string{id})
	return true
}
