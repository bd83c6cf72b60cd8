package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/chaingrid/internal/node"
)

// Invocation is everything a handler needs to execute one node.
type Invocation struct {
	RunID string
	Node  node.Node
	// Vars are the run variables, visible to scripts and conditions.
	Vars map[string]any
}

// Result is what a handler produced.
type Result struct {
	// Pass is the gate decision of a Conditional node. Other kinds always
	// report true.
	Pass   bool
	Output any
}

// Handler executes the work of one node kind.
type Handler interface {
	Execute(ctx context.Context, inv *Invocation) (Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, inv *Invocation) (Result, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, inv *Invocation) (Result, error) {
	return f(ctx, inv)
}

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered handlers for a single application instance.
type Registry struct {
	handlers map[node.Kind]Handler
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{handlers: make(map[node.Kind]Handler)}
}

// RegisterHandler registers the handler for a node kind. Registering an
// unknown kind or a kind twice is a programming error and panics.
func (r *Registry) RegisterHandler(kind node.Kind, h Handler) {
	if !kind.Valid() {
		panic(fmt.Sprintf("cannot register handler for unknown node kind '%s'", kind))
	}
	if _, exists := r.handlers[kind]; exists {
		panic(fmt.Sprintf("handler for node kind '%s' already registered", kind))
	}
	slog.Debug("Registering node handler.", "kind", kind)
	r.handlers[kind] = h
}

// Handler returns the handler for kind.
func (r *Registry) Handler(kind node.Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []node.Kind {
	kinds := make([]node.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
