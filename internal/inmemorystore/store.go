// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// Each kind of state lives in its own sync.Map keyed by node id. The key
// space is small and stable while values change on every executor step,
// which is the access pattern sync.Map is built for.
package inmemorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	states      sync.Map // Key: node ID, Value: node.Status
	outputs     sync.Map // Key: node ID, Value: any
	errors      sync.Map // Key: node ID, Value: error
	highlighted sync.Map // Key: node ID, Value: struct{}
	selected    sync.Map // Key: node ID, Value: struct{}

	// selMu serializes selection replacement so readers never observe a
	// half-applied selection.
	selMu sync.Mutex
}

// New creates a new, empty overlay store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the execution status of a node.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the execution status of a node.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// SetOutput records the output of a node.
func (s *Store) SetOutput(ctx context.Context, id string, output any) error {
	s.outputs.Store(id, output)
	return nil
}

// GetOutput retrieves the output of a node.
func (s *Store) GetOutput(ctx context.Context, id string) (any, error) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return nil, nil
	}
	return output, nil
}

// SetError records the error of a failed node.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the error of a failed node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	nodeErr, ok := s.errors.Load(id)
	if !ok {
		return nil, nil
	}
	return nodeErr.(error), nil
}

// SetHighlighted sets or clears the highlight flag.
func (s *Store) SetHighlighted(ctx context.Context, id string, on bool) error {
	if on {
		s.highlighted.Store(id, struct{}{})
	} else {
		s.highlighted.Delete(id)
	}
	return nil
}

// Highlighted returns the ids of all highlighted nodes.
func (s *Store) Highlighted(ctx context.Context) ([]string, error) {
	return sortedKeys(&s.highlighted), nil
}

// ClearHighlights clears every highlight flag.
func (s *Store) ClearHighlights(ctx context.Context) error {
	s.highlighted.Clear()
	return nil
}

// SetSelected replaces the selection.
func (s *Store) SetSelected(ctx context.Context, ids []string) error {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	s.selected.Clear()
	for _, id := range ids {
		s.selected.Store(id, struct{}{})
	}
	return nil
}

// Selected returns the ids of all selected nodes.
func (s *Store) Selected(ctx context.Context) ([]string, error) {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	return sortedKeys(&s.selected), nil
}

// ResetRun clears run artifacts for every node.
func (s *Store) ResetRun(ctx context.Context) error {
	s.states.Clear()
	s.outputs.Clear()
	s.errors.Clear()
	return nil
}

// Forget drops all state held for id.
func (s *Store) Forget(ctx context.Context, id string) error {
	s.states.Delete(id)
	s.outputs.Delete(id)
	s.errors.Delete(id)
	s.highlighted.Delete(id)

	s.selMu.Lock()
	s.selected.Delete(id)
	s.selMu.Unlock()
	return nil
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	slices.Sort(keys)
	return keys
}
