package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/inmemorystore"
	"github.com/vk/chaingrid/internal/inmemorytopology"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/topologystore"
)

// Start returns a start Code node with the given id.
func Start(id string) node.Node {
	return node.Node{ID: id, Kind: node.KindCode, Label: id, IsStart: true, Data: &node.CodeData{}}
}

// Code returns a Code node running script.
func Code(id, script string) node.Node {
	return node.Node{ID: id, Kind: node.KindCode, Label: id, Data: &node.CodeData{Script: script}}
}

// Gate returns a Conditional node with the given condition.
func Gate(id, condition string) node.Node {
	return node.Node{ID: id, Kind: node.KindConditional, Label: id, Data: &node.ConditionalData{Condition: condition}}
}

// Request returns a DataRequest node calling endpoint.
func Request(id, method, endpoint string) node.Node {
	return node.Node{ID: id, Kind: node.KindDataRequest, Label: id, Data: &node.DataRequestData{Method: method, Endpoint: endpoint}}
}

// Edge returns the handle-less edge source → target.
func Edge(source, target string) node.Edge {
	return node.Edge{ID: nodeid.EdgeID(source, "", target, ""), Source: source, Target: target}
}

// Chain returns the edges linking ids in sequence.
func Chain(ids ...string) []node.Edge {
	var edges []node.Edge
	for i := 1; i < len(ids); i++ {
		edges = append(edges, Edge(ids[i-1], ids[i]))
	}
	return edges
}

// NewGraph builds an in-memory graph from nodes and edges. Exactly one node
// must be a start node.
func NewGraph(t *testing.T, nodes []node.Node, edges []node.Edge) graph.Graph {
	t.Helper()
	ts, err := inmemorytopology.NewFromSnapshot(topologystore.Snapshot{Nodes: nodes, Edges: edges})
	require.NoError(t, err, "building test topology")
	return graph.New(ts, inmemorystore.New())
}

// EdgePairs returns "source->target" for every edge of g, in order.
func EdgePairs(ctx context.Context, g graph.Graph) []string {
	var pairs []string
	for _, e := range g.Snapshot(ctx).Edges {
		pairs = append(pairs, e.Source+"->"+e.Target)
	}
	return pairs
}
