package graph

import (
	"context"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
)

// View is the graph as a client renders it.
type View struct {
	Nodes []ViewNode  `json:"nodes"`
	Edges []node.Edge `json:"edges"`
}

// ViewNode is a node joined with its overlay state.
type ViewNode struct {
	node.Node
	Highlighted bool        `json:"highlighted"`
	Selected    bool        `json:"selected"`
	Status      node.Status `json:"status"`
	Output      any         `json:"output,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func (m *Manager) View(ctx context.Context) View {
	logger := ctxlog.FromContext(ctx)
	snap := m.topology.Snapshot(ctx)

	highlighted, err := m.overlay.Highlighted(ctx)
	if err != nil {
		logger.Warn("Failed to read highlights.", "error", err)
	}
	selected, err := m.overlay.Selected(ctx)
	if err != nil {
		logger.Warn("Failed to read selection.", "error", err)
	}
	hl := toSet(highlighted)
	sel := toSet(selected)

	v := View{Nodes: make([]ViewNode, 0, len(snap.Nodes)), Edges: snap.Edges}
	if v.Edges == nil {
		v.Edges = []node.Edge{}
	}
	for _, n := range snap.Nodes {
		vn := ViewNode{
			Node:        n,
			Highlighted: hl[n.ID],
			Selected:    sel[n.ID],
			Status:      m.NodeStatus(ctx, n.ID),
		}
		vn.Output, _ = m.overlay.GetOutput(ctx, n.ID)
		if nodeErr, _ := m.overlay.GetError(ctx, n.ID); nodeErr != nil {
			vn.Error = nodeErr.Error()
		}
		v.Nodes = append(v.Nodes, vn)
	}
	return v
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
