// Package editor implements the user-facing graph edits: dropping templates
// onto the canvas, connecting and disconnecting nodes, editing node data and
// deleting nodes. Deleting a node reconnects its predecessors to its
// successors so a chain is never silently cut in two.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/node"
)

// ErrProtectedNode is returned when a deletion includes the start node.
var ErrProtectedNode = errors.New("the start node cannot be deleted")

// Runner executes chains and single nodes. *executor.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, startID string, opts ...executor.RunOption) (*executor.Report, error)
	RunNode(ctx context.Context, id string, opts ...executor.RunOption) (executor.Outcome, error)
}

// Editor applies edits to a graph.
type Editor struct {
	graph     graph.Graph
	resolver  *datasource.Resolver
	publisher events.Publisher
	runner    Runner

	// mu serializes structural edits; a deletion reads the graph and then
	// replaces it whole.
	mu sync.Mutex
}

// New creates an editor. runner may be nil, in which case bound nodes carry
// no run functions. A nil publisher disables change events.
func New(g graph.Graph, resolver *datasource.Resolver, pub events.Publisher, runner Runner) *Editor {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	return &Editor{graph: g, resolver: resolver, publisher: pub, runner: runner}
}

// DefaultStart returns the start node of a new, empty graph.
func DefaultStart() node.Node {
	return node.Node{
		ID:      "start",
		Kind:    node.KindCode,
		Label:   "Start",
		IsStart: true,
		Data:    &node.CodeData{Script: `print("chain started")`},
	}
}

// Bound is a node together with the actions the canvas offers on it.
type Bound struct {
	node.Node
	// Run executes this node alone.
	Run func(ctx context.Context) (executor.Outcome, error) `json:"-"`
	// RunChain runs the whole chain from this node. Only the start node has
	// it.
	RunChain func(ctx context.Context) (*executor.Report, error) `json:"-"`
}

// Bind attaches the run actions to n.
func (e *Editor) Bind(n node.Node) Bound {
	b := Bound{Node: n}
	if e.runner == nil {
		return b
	}
	id := n.ID
	b.Run = func(ctx context.Context) (executor.Outcome, error) {
		return e.runner.RunNode(ctx, id)
	}
	if n.IsStart {
		b.RunChain = func(ctx context.Context) (*executor.Report, error) {
			return e.runner.Run(ctx, id)
		}
	}
	return b
}

// Nodes returns every node of the graph with its actions bound.
func (e *Editor) Nodes(ctx context.Context) []Bound {
	snap := e.graph.Snapshot(ctx)
	out := make([]Bound, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		out = append(out, e.Bind(n))
	}
	return out
}

// Graph returns the graph being edited.
func (e *Editor) Graph() graph.Graph {
	return e.graph
}

func (e *Editor) changed(ctx context.Context, op string, nodeIDs, edgeIDs []string) {
	err := e.publisher.Publish(ctx, events.TopicGraphChanged, events.GraphChanged{Op: op, NodeIDs: nodeIDs, EdgeIDs: edgeIDs})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish graph change.", "op", op, "error", err)
	}
}
