package editor

import (
	"context"
	"fmt"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
)

// Keys of a partial update that are not payload fields, or that need more
// than a plain merge.
const (
	fieldLabel    = "label"
	fieldMethod   = "method"
	fieldCategory = "dataSourceCategory"
	fieldTicker   = "ticker"
)

// UpdateNodeData merges partial into the payload of node id. Keys are the
// JSON names of the payload fields; "label" renames the node. For a
// DataRequest node, a change to the data source category or ticker
// recomputes the endpoint.
func (e *Editor) UpdateNodeData(ctx context.Context, id string, partial map[string]any) (node.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated, err := e.graph.Topology().UpdateNode(ctx, id, func(n *node.Node) error {
		if v, ok := partial[fieldLabel]; ok {
			label, ok := v.(string)
			if !ok {
				return &node.StructuralError{Op: "update node", ID: id, Reason: fmt.Sprintf("label must be a string, got %T", v)}
			}
			n.Label = label
		}

		data, err := node.Merge(n.Data, partial)
		if err != nil {
			return err
		}

		if dr, ok := data.(*node.DataRequestData); ok {
			if _, set := partial[fieldMethod]; set {
				method, valid := node.NormalizeMethod(dr.Method)
				if !valid {
					return &node.StructuralError{Op: "update node", ID: id, Reason: fmt.Sprintf("unsupported method '%s'", dr.Method)}
				}
				dr.Method = method
			}
			_, categorySet := partial[fieldCategory]
			_, tickerSet := partial[fieldTicker]
			if categorySet || tickerSet {
				endpoint, err := e.resolver.Endpoint(dr.Category, dr.Ticker)
				if err != nil {
					return err
				}
				dr.Endpoint = endpoint
			}
		}

		n.Data = data
		return nil
	})
	if err != nil {
		return node.Node{}, err
	}

	ctxlog.FromContext(ctx).Debug("Updated node data.", "nodeID", id)
	e.changed(ctx, "update", []string{id}, nil)
	return updated, nil
}

// SetCategory changes the data source category of a DataRequest node.
func (e *Editor) SetCategory(ctx context.Context, id, category string) (node.Node, error) {
	return e.UpdateNodeData(ctx, id, map[string]any{fieldCategory: category})
}

// SetTicker changes the ticker of a DataRequest node.
func (e *Editor) SetTicker(ctx context.Context, id, ticker string) (node.Node, error) {
	return e.UpdateNodeData(ctx, id, map[string]any{fieldTicker: ticker})
}

// SetDataSource changes both the category and the ticker in one update.
func (e *Editor) SetDataSource(ctx context.Context, id, category, ticker string) (node.Node, error) {
	return e.UpdateNodeData(ctx, id, map[string]any{fieldCategory: category, fieldTicker: ticker})
}
