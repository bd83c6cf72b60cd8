package editor

import (
	"context"
	"slices"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/topologystore"
)

// DeleteNodes removes the nodes in ids and returns the resulting graph.
//
// Each node is removed in turn from a working copy: every edge touching it
// goes, and each predecessor is linked to each successor, carrying the
// predecessor's source handle and the successor's target handle. Links
// that would be self-loops or that already exist are skipped. The working
// copy then replaces the graph in one step.
//
// If ids contains the start node nothing is deleted and ErrProtectedNode is
// returned. Unknown ids are ignored.
func (e *Editor) DeleteNodes(ctx context.Context, ids []string) (topologystore.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	snap := e.graph.Snapshot(ctx)
	if start, ok := snap.Start(); ok && slices.Contains(ids, start.ID) {
		logger.Warn("Refusing to delete the start node.", "nodeID", start.ID)
		return snap, ErrProtectedNode
	}

	work := snap.Clone()
	var removedNodes, addedEdges []string
	for _, id := range ids {
		if _, ok := work.Node(id); !ok {
			continue
		}
		var added []string
		work, added = reconnect(work, id)
		removedNodes = append(removedNodes, id)
		addedEdges = append(addedEdges, added...)
	}
	if len(removedNodes) == 0 {
		return snap, nil
	}

	if err := e.graph.Topology().Replace(ctx, work); err != nil {
		return snap, err
	}
	for _, id := range removedNodes {
		if err := e.graph.Overlay().Forget(ctx, id); err != nil {
			logger.Warn("Failed to drop state of deleted node.", "nodeID", id, "error", err)
		}
	}

	logger.Info("Deleted nodes.", "nodeIDs", removedNodes, "reconnected", len(addedEdges))
	e.changed(ctx, "delete", removedNodes, addedEdges)
	return work, nil
}

// reconnect removes node id from snap, bridging its incoming edges to its
// outgoing ones. It returns the new snapshot and the ids of the added edges.
func reconnect(snap topologystore.Snapshot, id string) (topologystore.Snapshot, []string) {
	var incoming, outgoing, kept []node.Edge
	for _, e := range snap.Edges {
		switch {
		case e.Source == id && e.Target == id:
		case e.Target == id:
			incoming = append(incoming, e)
		case e.Source == id:
			outgoing = append(outgoing, e)
		default:
			kept = append(kept, e)
		}
	}

	existing := make(map[string]bool, len(kept))
	for _, e := range kept {
		existing[e.ID] = true
	}

	var added []string
	for _, in := range incoming {
		for _, out := range outgoing {
			if in.Source == out.Target {
				continue
			}
			eid := nodeid.EdgeID(in.Source, in.SourceHandle, out.Target, out.TargetHandle)
			if existing[eid] {
				continue
			}
			existing[eid] = true
			kept = append(kept, node.Edge{
				ID:           eid,
				Source:       in.Source,
				Target:       out.Target,
				SourceHandle: in.SourceHandle,
				TargetHandle: out.TargetHandle,
			})
			added = append(added, eid)
		}
	}

	nodes := slices.DeleteFunc(snap.Nodes, func(n node.Node) bool { return n.ID == id })
	return topologystore.Snapshot{Nodes: nodes, Edges: kept}, added
}
