package executor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/registry"
)

// execute runs one node, records its outcome in the overlay and reports
// whether the walk may continue to the node's successors.
func (e *Executor) execute(ctx context.Context, runID string, n node.Node, vars map[string]any) (Outcome, bool) {
	logger := ctxlog.FromContext(ctx).With("nodeID", n.ID, "kind", n.Kind)
	ctx = ctxlog.WithLogger(ctx, logger)
	outcome := Outcome{NodeID: n.ID, Kind: n.Kind}

	if err := e.graph.MarkRunning(ctx, n.ID); err != nil {
		logger.Warn("Failed to mark node as running.", "error", err)
	}

	handler, ok := e.registry.Handler(n.Kind)
	if !ok {
		err := &node.StructuralError{Op: "execute", ID: n.ID, Reason: "no handler registered for kind " + n.Kind.String()}
		e.fail(ctx, runID, &outcome, err, nil)
		return outcome, false
	}

	logger.Debug("Executing node.")
	res, err := invoke(ctx, handler, &registry.Invocation{RunID: runID, Node: n, Vars: vars})

	switch n.Data.(type) {
	case *node.ConditionalData:
		if err != nil {
			logger.Warn("Condition could not be evaluated, blocking path.", "error", err)
			e.block(ctx, runID, &outcome, err)
			return outcome, false
		}
		if !res.Pass {
			logger.Info("Condition is false, blocking path.")
			e.block(ctx, runID, &outcome, nil)
			return outcome, false
		}
		outcome.Status = node.StatusPassed
		outcome.Output = res.Output
		if err := e.graph.MarkPassed(ctx, n.ID); err != nil {
			logger.Warn("Failed to mark node as passed.", "error", err)
		}
		e.publishOutcome(ctx, runID, events.TopicNodeCompleted, outcome)
		return outcome, true

	case *node.CodeData, *node.DataRequestData:
		if err != nil {
			logger.Warn("Node failed, continuing chain.", "error", err)
			e.fail(ctx, runID, &outcome, err, res.Output)
			return outcome, true
		}
		outcome.Status = node.StatusCompleted
		outcome.Output = res.Output
		if err := e.graph.MarkCompleted(ctx, n.ID, res.Output); err != nil {
			logger.Warn("Failed to mark node as completed.", "error", err)
		}
		e.publishOutcome(ctx, runID, events.TopicNodeCompleted, outcome)
		return outcome, true

	default:
		err := &node.StructuralError{Op: "execute", ID: n.ID, Reason: fmt.Sprintf("unsupported payload %T", n.Data)}
		e.fail(ctx, runID, &outcome, err, nil)
		return outcome, false
	}
}

// invoke calls the handler, turning a panic into an error.
func invoke(ctx context.Context, h registry.Handler, inv *registry.Invocation) (res registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Node handler panicked.", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, inv)
}

func (e *Executor) fail(ctx context.Context, runID string, outcome *Outcome, err error, output any) {
	outcome.Status = node.StatusFailed
	outcome.Output = output
	outcome.Err = err
	outcome.Error = err.Error()
	if markErr := e.graph.MarkFailed(ctx, outcome.NodeID, err, output); markErr != nil {
		ctxlog.FromContext(ctx).Warn("Failed to mark node as failed.", "error", markErr)
	}
	e.publishOutcome(ctx, runID, events.TopicNodeFailed, *outcome)
}

func (e *Executor) block(ctx context.Context, runID string, outcome *Outcome, reason error) {
	outcome.Status = node.StatusBlocked
	outcome.Output = false
	if reason != nil {
		outcome.Err = reason
		outcome.Error = reason.Error()
	}
	if err := e.graph.MarkBlocked(ctx, outcome.NodeID, reason); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to mark node as blocked.", "error", err)
	}
	e.publishOutcome(ctx, runID, events.TopicNodeBlocked, *outcome)
}

func (e *Executor) publishOutcome(ctx context.Context, runID, topic string, o Outcome) {
	e.publish(ctx, topic, events.NodeOutcome{
		RunID:  runID,
		NodeID: o.NodeID,
		Kind:   o.Kind.String(),
		Status: o.Status.String(),
		Output: o.Output,
		Error:  o.Error,
	})
}
