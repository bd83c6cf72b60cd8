// Package code executes Code nodes by running their script.
package code

import (
	"context"

	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/registry"
	"github.com/vk/chaingrid/internal/scripting"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Scripter scripting.Scripter
}

// Register registers the Code handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	s := m.Scripter
	if s == nil {
		s = scripting.NewStarlark(0)
	}
	r.RegisterHandler(node.KindCode, &Handler{scripter: s})
}

// Handler runs the script of a Code node.
type Handler struct {
	scripter scripting.Scripter
}

// NewHandler returns a Handler that runs scripts with s.
func NewHandler(s scripting.Scripter) *Handler {
	return &Handler{scripter: s}
}

// Execute runs the node's script with the run variables. A script error is
// returned alongside whatever the script printed before failing; it never
// gates the chain.
func (h *Handler) Execute(ctx context.Context, inv *registry.Invocation) (registry.Result, error) {
	data, ok := inv.Node.Data.(*node.CodeData)
	if !ok {
		return registry.Result{}, &node.StructuralError{Op: "code", ID: inv.Node.ID, Reason: "node does not carry a code payload"}
	}

	out, err := h.scripter.Execute(ctx, data.Script, inv.Vars)
	return registry.Result{Pass: true, Output: out}, err
}
