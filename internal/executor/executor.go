// Package executor runs a chain: a depth-first walk of the graph from a
// start node, executing each reachable node once.
//
// Branches run one after another in the order their edges were added, each
// branch completing before the next begins. A Conditional node that does not
// pass stops the walk along its outgoing edges; failures of Code and
// DataRequest nodes are recorded and the walk continues past them.
package executor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/registry"
)

// ErrRunInProgress is returned when a run is requested while another run on
// the same executor has not finished.
var ErrRunInProgress = errors.New("a chain run is already in progress")

// Config holds the executor settings.
type Config struct {
	// Vars is the evaluation context handed to every node of every run.
	Vars map[string]any
	// Timeout bounds a whole run. Zero means no bound.
	Timeout time.Duration
}

// Executor runs chains over one graph.
type Executor struct {
	graph     graph.Graph
	registry  *registry.Registry
	publisher events.Publisher
	cfg       Config

	running sync.Mutex
}

// New creates an executor. A nil publisher disables event publishing.
func New(g graph.Graph, reg *registry.Registry, pub events.Publisher, cfg Config) *Executor {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	return &Executor{graph: g, registry: reg, publisher: pub, cfg: cfg}
}

// RunOption customizes a single run.
type RunOption func(*runOptions)

type runOptions struct {
	vars map[string]any
}

// WithVars adds vars to the evaluation context of one run. They take
// precedence over the configured vars.
func WithVars(vars map[string]any) RunOption {
	return func(o *runOptions) {
		maps.Copy(o.vars, vars)
	}
}

func (e *Executor) buildOptions(opts []RunOption) runOptions {
	o := runOptions{vars: make(map[string]any, len(e.cfg.Vars))}
	maps.Copy(o.vars, e.cfg.Vars)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run walks the graph from startID. It fails fast only when startID does not
// name a node or another run is in progress; node failures are reported in
// the returned Report. If ctx ends before the walk completes, Run returns
// the partial report together with the context error.
//
// The walk works on a snapshot of the graph taken when the run starts.
func (e *Executor) Run(ctx context.Context, startID string, opts ...RunOption) (*Report, error) {
	if !e.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.running.Unlock()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	snap := e.graph.Snapshot(ctx)
	if _, ok := snap.Node(startID); !ok {
		return nil, &node.StructuralError{Op: "run", ID: startID, Reason: "start node does not exist"}
	}

	o := e.buildOptions(opts)
	runID := nodeid.NewRunID()
	ctx = ctxlog.With(ctx, "runID", runID)
	logger := ctxlog.FromContext(ctx)

	if err := e.graph.ResetRun(ctx); err != nil {
		logger.Warn("Failed to reset state of the previous run.", "error", err)
	}

	report := &Report{RunID: runID, StartID: startID, StartedAt: time.Now()}
	logger.Info("▶️ Starting chain run.", "startID", startID, "nodes", len(snap.Nodes))
	e.publish(ctx, events.TopicRunStarted, events.RunStarted{RunID: runID, StartID: startID, At: report.StartedAt})

	children := make(map[string][]string, len(snap.Nodes))
	for _, edge := range snap.Edges {
		children[edge.Source] = append(children[edge.Source], edge.Target)
	}

	visited := make(map[string]bool, len(snap.Nodes))
	stack := []string{startID}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		n, ok := snap.Node(id)
		if !ok {
			logger.Debug("Skipping edge to a node that no longer exists.", "nodeID", id)
			continue
		}
		visited[id] = true
		report.Visited = append(report.Visited, id)

		if err := e.graph.Highlight(ctx, id); err != nil {
			logger.Warn("Failed to highlight node.", "nodeID", id, "error", err)
		}
		e.publish(ctx, events.TopicNodeHighlighted, events.NodeHighlighted{RunID: runID, NodeID: id, Kind: n.Kind.String()})

		outcome, proceed := e.execute(ctx, runID, n, o.vars)
		report.Outcomes = append(report.Outcomes, outcome)
		if !proceed {
			continue
		}

		// Reverse order so the first edge is popped first.
		next := children[id]
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	if ctx.Err() != nil {
		report.Canceled = true
	}
	report.FinishedAt = time.Now()

	e.publish(ctx, events.TopicRunFinished, events.RunFinished{
		RunID:    runID,
		Visited:  report.Visited,
		Canceled: report.Canceled,
		Duration: report.Duration(),
	})

	if report.Canceled {
		logger.Warn("Chain run stopped before completion.", "visited", len(report.Visited), "error", ctx.Err())
		return report, fmt.Errorf("chain run %s: %w", runID, ctx.Err())
	}
	logger.Info("✅ Finished chain run.", "visited", len(report.Visited), "duration", report.Duration())
	return report, nil
}

// RunNode executes a single node without visiting its successors and
// without resetting the state of other nodes.
func (e *Executor) RunNode(ctx context.Context, id string, opts ...RunOption) (Outcome, error) {
	if !e.running.TryLock() {
		return Outcome{}, ErrRunInProgress
	}
	defer e.running.Unlock()

	n, ok := e.graph.Node(ctx, id)
	if !ok {
		return Outcome{}, &node.StructuralError{Op: "run node", ID: id, Reason: "node does not exist"}
	}

	o := e.buildOptions(opts)
	runID := nodeid.NewRunID()
	ctx = ctxlog.With(ctx, "runID", runID)
	ctxlog.FromContext(ctx).Info("▶️ Running single node.", "nodeID", id)

	outcome, _ := e.execute(ctx, runID, n, o.vars)
	return outcome, nil
}

func (e *Executor) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish event.", "topic", topic, "error", err)
	}
}
