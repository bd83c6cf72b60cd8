// Package events publishes run and graph events to external listeners: the
// UI shell (over Socket.IO) and any backend subscriber (over NATS or Redis
// pub/sub). Publishing is fire-and-forget; a failed publish is logged by the
// caller and never affects a run.
package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicRunStarted      = "chaingrid.run.started"
	TopicRunFinished     = "chaingrid.run.finished"
	TopicNodeHighlighted = "chaingrid.node.highlighted"
	TopicNodeCompleted   = "chaingrid.node.completed"
	TopicNodeFailed      = "chaingrid.node.failed"
	TopicNodeBlocked     = "chaingrid.node.blocked"
	TopicGraphChanged    = "chaingrid.graph.changed"
)

// Publisher sends events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Event types

// RunStarted is published when a chain run begins.
type RunStarted struct {
	RunID   string    `json:"run_id"`
	StartID string    `json:"start_id"`
	At      time.Time `json:"at"`
}

// RunFinished is published when a chain run ends, normally or not.
type RunFinished struct {
	RunID    string        `json:"run_id"`
	Visited  []string      `json:"visited"`
	Canceled bool          `json:"canceled"`
	Duration time.Duration `json:"duration_ns"`
}

// NodeHighlighted is published when the executor reaches a node.
type NodeHighlighted struct {
	RunID  string `json:"run_id"`
	NodeID string `json:"node_id"`
	Kind   string `json:"kind"`
}

// NodeOutcome is published when a node finishes. The topic tells which
// outcome it was.
type NodeOutcome struct {
	RunID  string `json:"run_id"`
	NodeID string `json:"node_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GraphChanged is published after a structural edit.
type GraphChanged struct {
	Op      string   `json:"op"`
	NodeIDs []string `json:"node_ids,omitempty"`
	EdgeIDs []string `json:"edge_ids,omitempty"`
}
