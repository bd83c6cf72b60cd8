// Package conditional executes Conditional nodes. The node's condition is
// evaluated against the run variables and its result gates the outgoing
// path.
package conditional

import (
	"context"
	"strings"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/expr"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Evaluator expr.Evaluator
}

// Register registers the Conditional handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	ev := m.Evaluator
	if ev == nil {
		ev = expr.NewHCL()
	}
	r.RegisterHandler(node.KindConditional, &Handler{evaluator: ev})
}

// Handler evaluates the condition of a Conditional node.
type Handler struct {
	evaluator expr.Evaluator
}

// NewHandler returns a Handler that evaluates conditions with ev.
func NewHandler(ev expr.Evaluator) *Handler {
	return &Handler{evaluator: ev}
}

// Execute evaluates the condition. An empty condition passes. An evaluation
// error closes the gate and is returned.
func (h *Handler) Execute(ctx context.Context, inv *registry.Invocation) (registry.Result, error) {
	data, ok := inv.Node.Data.(*node.ConditionalData)
	if !ok {
		return registry.Result{}, &node.StructuralError{Op: "conditional", ID: inv.Node.ID, Reason: "node does not carry a conditional payload"}
	}

	if strings.TrimSpace(data.Condition) == "" {
		ctxlog.FromContext(ctx).Warn("Conditional node has no condition, passing.", "nodeID", inv.Node.ID)
		return registry.Result{Pass: true, Output: true}, nil
	}

	pass, err := h.evaluator.Evaluate(data.Condition, inv.Vars)
	if err != nil {
		return registry.Result{Pass: false}, err
	}
	return registry.Result{Pass: pass, Output: pass}, nil
}
