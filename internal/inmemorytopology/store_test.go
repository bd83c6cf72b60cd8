package inmemorytopology

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/topologystore"
)

func codeNode(id string) node.Node {
	return node.Node{ID: id, Kind: node.KindCode, Label: id, Data: &node.CodeData{Script: "pass"}}
}

func startNode() node.Node {
	n := codeNode("start")
	n.IsStart = true
	return n
}

func edge(source, target string) node.Edge {
	return node.Edge{ID: nodeid.EdgeID(source, "", target, ""), Source: source, Target: target}
}

func newStore(t *testing.T) topologystore.Store {
	t.Helper()
	s, err := New(startNode())
	require.NoError(t, err)
	return s
}

func TestNew_RequiresStartNode(t *testing.T) {
	_, err := New(codeNode("plain"))
	require.Error(t, err)
	assert.True(t, node.IsStructural(err))
}

func TestAddNode_RejectsDuplicatesAndSecondStart(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNode(ctx, codeNode("a")))

	err := s.AddNode(ctx, codeNode("a"))
	assert.True(t, node.IsStructural(err), "duplicate id must be rejected")

	second := codeNode("b")
	second.IsStart = true
	err = s.AddNode(ctx, second)
	assert.True(t, node.IsStructural(err), "second start node must be rejected")

	assert.Len(t, s.Nodes(ctx), 2)
}

func TestAddEdge_IdempotentAndValidated(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, codeNode("a")))

	first, err := s.AddEdge(ctx, edge("start", "a"))
	require.NoError(t, err)

	again, err := s.AddEdge(ctx, edge("start", "a"))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, s.Edges(ctx), 1)

	_, err = s.AddEdge(ctx, edge("start", "ghost"))
	assert.True(t, node.IsStructural(err))
	assert.Len(t, s.Edges(ctx), 1)
}

func TestAddEdge_RejectsReusedIDForOtherEndpoints(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, codeNode("a")))
	require.NoError(t, s.AddNode(ctx, codeNode("b")))

	_, err := s.AddEdge(ctx, node.Edge{ID: "e1", Source: "start", Target: "a"})
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, node.Edge{ID: "e1", Source: "start", Target: "b"})
	require.Error(t, err)
	assert.True(t, node.IsStructural(err))
	assert.Contains(t, err.Error(), "id already used")
	assert.Len(t, s.Edges(ctx), 1)
}

func TestEdges_PreservesInsertionOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.AddNode(ctx, codeNode(id)))
		_, err := s.AddEdge(ctx, edge("start", id))
		require.NoError(t, err)
	}

	var targets []string
	for _, e := range s.Edges(ctx) {
		targets = append(targets, e.Target)
	}
	assert.Equal(t, []string{"c", "a", "b"}, targets)
}

func TestRemoveEdge(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, codeNode("a")))
	require.NoError(t, s.AddNode(ctx, codeNode("b")))
	e1, _ := s.AddEdge(ctx, edge("start", "a"))
	e2, _ := s.AddEdge(ctx, edge("a", "b"))

	assert.True(t, s.RemoveEdge(ctx, e1.ID))
	assert.False(t, s.RemoveEdge(ctx, e1.ID))

	_, ok := s.Edge(ctx, e2.ID)
	assert.True(t, ok, "index must survive removal of an earlier edge")
}

func TestUpdateNode(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, codeNode("a")))

	updated, err := s.UpdateNode(ctx, "a", func(n *node.Node) error {
		n.Label = "renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Label)

	_, err = s.UpdateNode(ctx, "a", func(n *node.Node) error {
		n.IsStart = true
		return nil
	})
	assert.True(t, node.IsStructural(err))

	got, _ := s.Node(ctx, "a")
	assert.False(t, got.IsStart)

	_, err = s.UpdateNode(ctx, "missing", func(*node.Node) error { return nil })
	assert.True(t, node.IsStructural(err))
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	snap := s.Snapshot(ctx)
	snap.Nodes[0].Label = "mutated"
	snap.Nodes[0].Data.(*node.CodeData).Script = "mutated"

	start := s.StartNode(ctx)
	assert.Equal(t, "start", start.Label)
	assert.Equal(t, "pass", start.Data.(*node.CodeData).Script)
}

func TestReplace_RejectsInvalidGraphAtomically(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, codeNode("a")))

	bad := topologystore.Snapshot{
		Nodes: []node.Node{startNode()},
		Edges: []node.Edge{edge("start", "ghost")},
	}
	err := s.Replace(ctx, bad)
	require.Error(t, err)
	assert.Len(t, s.Nodes(ctx), 2, "store must be unchanged")

	noStart := topologystore.Snapshot{Nodes: []node.Node{codeNode("x")}}
	assert.Error(t, s.Replace(ctx, noStart))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("n%d", i)
			if err := s.AddNode(ctx, codeNode(id)); err != nil {
				t.Errorf("add node: %v", err)
				return
			}
			if _, err := s.AddEdge(ctx, edge("start", id)); err != nil {
				t.Errorf("add edge: %v", err)
			}
			_ = s.Snapshot(ctx)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Nodes(ctx), 51)
	assert.Len(t, s.Edges(ctx), 50)
	require.NoError(t, s.Snapshot(ctx).Validate())
}
