// Package nodestore defines the interface for the transient, per-node state
// that sits on top of a chain graph: execution status, outputs and errors of
// the latest run, plus the UI highlight and selection flags.
//
// None of this state is structural. It is kept out of topologystore.Store so
// that the executor can mark nodes without rewriting the graph, and so that a
// graph snapshot never carries run artifacts.
//
// State transitions during a run:
//
//	Pending → Running → Completed | Failed | Passed | Blocked
package nodestore

import (
	"context"

	"github.com/vk/chaingrid/internal/node"
)

// Store is the interface for managing per-node overlay state.
//
// Implementations MUST be thread-safe. Unknown ids are not an error: the
// overlay does not validate topology membership.
type Store interface {
	// SetStatus records the execution status of a node.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// GetStatus returns the status of a node, or StatusPending if none was set.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetOutput records the output produced by a node.
	SetOutput(ctx context.Context, id string, output any) error

	// GetOutput returns the recorded output of a node, or nil.
	GetOutput(ctx context.Context, id string) (any, error)

	// SetError records the error a node failed with.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded error of a node, or nil.
	GetError(ctx context.Context, id string) (error, error)

	// SetHighlighted sets or clears the highlight flag of a node.
	SetHighlighted(ctx context.Context, id string, on bool) error

	// Highlighted returns the ids of all highlighted nodes, sorted.
	Highlighted(ctx context.Context) ([]string, error)

	// ClearHighlights clears the highlight flag of every node.
	ClearHighlights(ctx context.Context) error

	// SetSelected replaces the current selection.
	SetSelected(ctx context.Context, ids []string) error

	// Selected returns the ids of all selected nodes, sorted.
	Selected(ctx context.Context) ([]string, error)

	// ResetRun clears status, output and error for every node.
	ResetRun(ctx context.Context) error

	// Forget drops every piece of state held for a node.
	Forget(ctx context.Context, id string) error
}
