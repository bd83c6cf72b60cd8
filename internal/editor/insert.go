package editor

import (
	"context"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/template"
)

// InsertNode creates a node from t at pos under a fresh id.
func (e *Editor) InsertNode(ctx context.Context, t *template.Template, pos node.Position) (Bound, error) {
	if err := t.Validate(); err != nil {
		return Bound{}, err
	}
	payload, err := t.Payload(e.resolver)
	if err != nil {
		return Bound{}, &node.StructuralError{Op: "insert node", ID: t.Label, Reason: "cannot build payload", Err: err}
	}

	n := node.Node{
		ID:       nodeid.New(),
		Kind:     t.Type,
		Label:    t.Label,
		Position: pos,
		Data:     payload,
	}
	e.mu.Lock()
	err = e.graph.Topology().AddNode(ctx, n)
	e.mu.Unlock()
	if err != nil {
		return Bound{}, err
	}

	ctxlog.FromContext(ctx).Info("Inserted node.", "nodeID", n.ID, "kind", n.Kind, "label", n.Label)
	e.changed(ctx, "insert", []string{n.ID}, nil)
	return e.Bind(n), nil
}

// Drop handles a template dropped on the canvas. A payload under another
// transfer type or one that fails validation is discarded and logged; ok
// reports whether a node was inserted.
func (e *Editor) Drop(ctx context.Context, transferType, payload string, pos node.Position) (b Bound, ok bool) {
	logger := ctxlog.FromContext(ctx)
	if transferType == "" || payload == "" {
		logger.Debug("Ignoring drop without a template payload.")
		return Bound{}, false
	}

	t, err := template.Decode(transferType, payload)
	if err != nil {
		logger.Warn("Discarding dropped template.", "error", err)
		return Bound{}, false
	}
	b, err = e.InsertNode(ctx, t, pos)
	if err != nil {
		logger.Warn("Discarding dropped template.", "label", t.Label, "error", err)
		return Bound{}, false
	}
	return b, true
}
