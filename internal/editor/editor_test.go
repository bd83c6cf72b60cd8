package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/template"
	"github.com/vk/chaingrid/internal/testutil"
)

const testBase = "http://localhost:8000/api"

type fakeRunner struct {
	runs     []string
	nodeRuns []string
}

func (f *fakeRunner) Run(_ context.Context, startID string, _ ...executor.RunOption) (*executor.Report, error) {
	f.runs = append(f.runs, startID)
	return &executor.Report{StartID: startID}, nil
}

func (f *fakeRunner) RunNode(_ context.Context, id string, _ ...executor.RunOption) (executor.Outcome, error) {
	f.nodeRuns = append(f.nodeRuns, id)
	return executor.Outcome{NodeID: id}, nil
}

type fixture struct {
	ctx    context.Context
	graph  graph.Graph
	editor *Editor
	runner *fakeRunner
	pub    *testutil.RecordingPublisher
}

func newFixture(t *testing.T, nodes []node.Node, edges []node.Edge) *fixture {
	t.Helper()
	logger, _ := testutil.NewLogger()
	resolver, err := datasource.NewResolver(testBase)
	require.NoError(t, err)
	g := testutil.NewGraph(t, nodes, edges)
	f := &fixture{
		ctx:    ctxlog.WithLogger(context.Background(), logger),
		graph:  g,
		runner: &fakeRunner{},
		pub:    &testutil.RecordingPublisher{},
	}
	f.editor = New(g, resolver, f.pub, f.runner)
	return f
}

func nodeIDs(snap []node.Node) []string {
	ids := make([]string, len(snap))
	for i, n := range snap {
		ids[i] = n.ID
	}
	return ids
}

func TestDeleteNodes(t *testing.T) {
	testCases := []struct {
		name      string
		nodes     []string
		edges     []node.Edge
		delete    []string
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "leaf",
			nodes:     []string{"A"},
			edges:     testutil.Chain("start", "A"),
			delete:    []string{"A"},
			wantNodes: []string{"start"},
		},
		{
			name:  "reconnects every predecessor to every successor",
			nodes: []string{"B", "X", "C", "D"},
			edges: []node.Edge{
				testutil.Edge("start", "X"), testutil.Edge("B", "X"),
				testutil.Edge("X", "C"), testutil.Edge("X", "D"),
			},
			delete:    []string{"X"},
			wantNodes: []string{"start", "B", "C", "D"},
			wantEdges: []string{"start->C", "start->D", "B->C", "B->D"},
		},
		{
			name:      "skips self loops",
			nodes:     []string{"X"},
			edges:     []node.Edge{testutil.Edge("start", "X"), testutil.Edge("X", "start")},
			delete:    []string{"X"},
			wantNodes: []string{"start"},
		},
		{
			name:      "skips existing edges",
			nodes:     []string{"X", "C"},
			edges:     []node.Edge{testutil.Edge("start", "C"), testutil.Edge("start", "X"), testutil.Edge("X", "C")},
			delete:    []string{"X"},
			wantNodes: []string{"start", "C"},
			wantEdges: []string{"start->C"},
		},
		{
			name:      "consecutive nodes collapse",
			nodes:     []string{"X", "Y", "C"},
			edges:     testutil.Chain("start", "X", "Y", "C"),
			delete:    []string{"X", "Y"},
			wantNodes: []string{"start", "C"},
			wantEdges: []string{"start->C"},
		},
		{
			name:      "unknown ids are ignored",
			nodes:     []string{"A"},
			edges:     testutil.Chain("start", "A"),
			delete:    []string{"ghost"},
			wantNodes: []string{"start", "A"},
			wantEdges: []string{"start->A"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nodes := []node.Node{testutil.Start("start")}
			for _, id := range tc.nodes {
				nodes = append(nodes, testutil.Code(id, ""))
			}
			f := newFixture(t, nodes, tc.edges)

			snap, err := f.editor.DeleteNodes(f.ctx, tc.delete)
			require.NoError(t, err)

			assert.Equal(t, tc.wantNodes, nodeIDs(snap.Nodes))
			assert.Equal(t, tc.wantNodes, nodeIDs(f.graph.Snapshot(f.ctx).Nodes), "store matches the returned graph")
			if diff := cmp.Diff(tc.wantEdges, testutil.EdgePairs(f.ctx, f.graph)); diff != "" {
				t.Errorf("edges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteNodes_CarriesHandles(t *testing.T) {
	f := newFixture(t,
		[]node.Node{testutil.Start("A"), testutil.Gate("X", "true"), testutil.Code("C", "")},
		[]node.Edge{
			{ID: nodeid.EdgeID("A", "out", "X", "in"), Source: "A", Target: "X", SourceHandle: "out", TargetHandle: "in"},
			{ID: nodeid.EdgeID("X", "yes", "C", "t"), Source: "X", Target: "C", SourceHandle: "yes", TargetHandle: "t"},
		},
	)

	_, err := f.editor.DeleteNodes(f.ctx, []string{"X"})
	require.NoError(t, err)

	want := []node.Edge{{ID: "xy-edge__A:out~C:t", Source: "A", Target: "C", SourceHandle: "out", TargetHandle: "t"}}
	if diff := cmp.Diff(want, f.graph.Snapshot(f.ctx).Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteNodes_ProtectedStart(t *testing.T) {
	f := newFixture(t,
		[]node.Node{testutil.Start("start"), testutil.Code("A", "")},
		testutil.Chain("start", "A"),
	)
	before := f.graph.Snapshot(f.ctx)

	_, err := f.editor.DeleteNodes(f.ctx, []string{"A", "start"})
	require.ErrorIs(t, err, ErrProtectedNode)

	if diff := cmp.Diff(before, f.graph.Snapshot(f.ctx)); diff != "" {
		t.Errorf("graph changed after a rejected deletion (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.pub.Events())
}

func TestDeleteNodes_ForgetsOverlayState(t *testing.T) {
	f := newFixture(t,
		[]node.Node{testutil.Start("start"), testutil.Code("A", "")},
		testutil.Chain("start", "A"),
	)
	require.NoError(t, f.graph.MarkCompleted(f.ctx, "A", "out"))
	require.NoError(t, f.graph.Highlight(f.ctx, "A"))

	_, err := f.editor.DeleteNodes(f.ctx, []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, node.StatusPending, f.graph.NodeStatus(f.ctx, "A"))
	highlighted, err := f.graph.Overlay().Highlighted(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, highlighted)

	require.Len(t, f.pub.Events(), 1)
	changed := f.pub.Events()[0].Event.(events.GraphChanged)
	assert.Equal(t, "delete", changed.Op)
	assert.Equal(t, []string{"A"}, changed.NodeIDs)
}

func TestConnect(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Code("A", "")}, nil)

	edge, ok := f.editor.Connect(f.ctx, Connection{Source: "start", Target: "A", SourceHandle: "s"})
	require.True(t, ok)
	assert.Equal(t, "xy-edge__start:s~A", edge.ID)

	again, ok := f.editor.Connect(f.ctx, Connection{Source: "start", Target: "A", SourceHandle: "s"})
	require.True(t, ok)
	assert.Equal(t, edge, again)
	assert.Len(t, f.graph.Snapshot(f.ctx).Edges, 1, "an identical connection is not duplicated")

	_, ok = f.editor.Connect(f.ctx, Connection{Source: "start", Target: "ghost"})
	assert.False(t, ok)
	_, ok = f.editor.Connect(f.ctx, Connection{Source: "ghost", Target: "A"})
	assert.False(t, ok)
	assert.Len(t, f.graph.Snapshot(f.ctx).Edges, 1)

	assert.True(t, f.editor.RemoveEdge(f.ctx, edge.ID))
	assert.False(t, f.editor.RemoveEdge(f.ctx, edge.ID))
	assert.Empty(t, f.graph.Snapshot(f.ctx).Edges)
}

func TestConnect_DistinctEndpointsGetDistinctEdges(t *testing.T) {
	f := newFixture(t, []node.Node{
		testutil.Start("a"), testutil.Code("a-b", ""), testutil.Code("b-c", ""),
		testutil.Code("c", ""), testutil.Code("a1", ""), testutil.Code("b", ""),
	}, nil)

	connections := []Connection{
		{Source: "a", Target: "b-c"},
		{Source: "a-b", Target: "c"},
		{Source: "a", SourceHandle: "1", Target: "b"},
		{Source: "a1", Target: "b"},
	}
	ids := make(map[string]bool)
	for _, c := range connections {
		edge, ok := f.editor.Connect(f.ctx, c)
		require.True(t, ok)
		assert.Equal(t, c.Source, edge.Source)
		assert.Equal(t, c.Target, edge.Target)
		assert.Equal(t, c.SourceHandle, edge.SourceHandle)
		assert.False(t, ids[edge.ID], "edge id %s reused", edge.ID)
		ids[edge.ID] = true
	}

	want := []string{"a->b-c", "a-b->c", "a->b", "a1->b"}
	if diff := cmp.Diff(want, testutil.EdgePairs(f.ctx, f.graph)); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteNodes_BridgesBetweenHyphenatedIDs(t *testing.T) {
	f := newFixture(t,
		[]node.Node{testutil.Start("a"), testutil.Code("a-b", ""), testutil.Code("b-c", ""), testutil.Code("c", ""), testutil.Code("x", "")},
		[]node.Edge{testutil.Edge("a-b", "c"), testutil.Edge("a", "x"), testutil.Edge("x", "b-c")},
	)

	_, err := f.editor.DeleteNodes(f.ctx, []string{"x"})
	require.NoError(t, err)

	want := []string{"a-b->c", "a->b-c"}
	if diff := cmp.Diff(want, testutil.EdgePairs(f.ctx, f.graph)); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestDrop_TemplateRoundTrip(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start")}, nil)

	payload := `{"type":"dataNode","label":"GET Data","method":"GET","endpoint":""}`
	b, ok := f.editor.Drop(f.ctx, template.TransferType, payload, node.Position{X: 120, Y: 40})
	require.True(t, ok)

	assert.Equal(t, node.KindDataRequest, b.Kind)
	assert.Equal(t, "GET Data", b.Label)
	assert.Equal(t, node.Position{X: 120, Y: 40}, b.Position)
	data, isDR := b.Data.(*node.DataRequestData)
	require.True(t, isDR)
	assert.Equal(t, node.MethodGet, data.Method)
	assert.Empty(t, data.Endpoint)
	assert.NoError(t, nodeid.Validate(b.ID))

	require.NotNil(t, b.Run, "run binding is attached")
	assert.Nil(t, b.RunChain, "only the start node runs the chain")
	_, err := b.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, f.runner.nodeRuns)

	stored, found := f.graph.Node(f.ctx, b.ID)
	require.True(t, found)
	assert.Equal(t, b.Node, stored)
}

func TestDrop_Discarded(t *testing.T) {
	testCases := []struct {
		name         string
		transferType string
		payload      string
	}{
		{name: "no payload", transferType: template.TransferType},
		{name: "wrong transfer type", transferType: "text/plain", payload: `{"type":"codeNode","label":"x","code":"print(1)"}`},
		{name: "malformed json", transferType: template.TransferType, payload: `{"type":`},
		{name: "unknown kind", transferType: template.TransferType, payload: `{"type":"videoNode","label":"x"}`},
		{name: "missing label", transferType: template.TransferType, payload: `{"type":"codeNode","code":"print(1)"}`},
		{name: "unknown category", transferType: template.TransferType, payload: `{"type":"dataNode","label":"x","dataSourceCategory":"crypto"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, []node.Node{testutil.Start("start")}, nil)
			_, ok := f.editor.Drop(f.ctx, tc.transferType, tc.payload, node.Position{})
			assert.False(t, ok)
			assert.Len(t, f.graph.Snapshot(f.ctx).Nodes, 1, "graph is unchanged")
		})
	}
}

func TestUpdateNodeData_EndpointDerivation(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Request("fetch", "GET", "")}, nil)

	n, err := f.editor.SetDataSource(f.ctx, "fetch", "stock", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, testBase+"/quote/AAPL", n.Data.(*node.DataRequestData).Endpoint)

	before := n.Clone()
	after, err := f.editor.SetTicker(f.ctx, "fetch", "MSFT")
	require.NoError(t, err)

	want := before.Clone()
	want.Data.(*node.DataRequestData).Ticker = "MSFT"
	want.Data.(*node.DataRequestData).Endpoint = testBase + "/quote/MSFT"
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("only ticker and endpoint may change (-want +got):\n%s", diff)
	}

	after, err = f.editor.SetCategory(f.ctx, "fetch", "search")
	require.NoError(t, err)
	assert.Equal(t, testBase+"/search?ticker=MSFT", after.Data.(*node.DataRequestData).Endpoint)

	after, err = f.editor.SetCategory(f.ctx, "fetch", "")
	require.NoError(t, err)
	assert.Empty(t, after.Data.(*node.DataRequestData).Endpoint)
}

func TestUpdateNodeData_NullTickerClears(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Request("fetch", "GET", "")}, nil)
	_, err := f.editor.SetDataSource(f.ctx, "fetch", "stock", "AAPL")
	require.NoError(t, err)

	n, err := f.editor.UpdateNodeData(f.ctx, "fetch", map[string]any{"ticker": nil})
	require.NoError(t, err)

	data := n.Data.(*node.DataRequestData)
	assert.Empty(t, data.Ticker)
	assert.Equal(t, "stock", data.Category)
	assert.Equal(t, testBase+"/quote/", data.Endpoint)
}

func TestUpdateNodeData_UnknownCategory(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Request("fetch", "GET", "http://x")}, nil)

	_, err := f.editor.SetCategory(f.ctx, "fetch", "crypto")
	require.ErrorIs(t, err, datasource.ErrUnknownCategory)

	stored, _ := f.graph.Node(f.ctx, "fetch")
	assert.Equal(t, "http://x", stored.Data.(*node.DataRequestData).Endpoint)
	assert.Empty(t, stored.Data.(*node.DataRequestData).Category)
}

func TestUpdateNodeData(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Gate("gate", "x > 1"), testutil.Request("fetch", "GET", "")}, nil)

	n, err := f.editor.UpdateNodeData(f.ctx, "gate", map[string]any{"condition": "x > 10", "label": "Gate"})
	require.NoError(t, err)
	assert.Equal(t, "Gate", n.Label)
	assert.Equal(t, "x > 10", n.Data.(*node.ConditionalData).Condition)

	n, err = f.editor.UpdateNodeData(f.ctx, "fetch", map[string]any{"method": "post", "body": `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, node.MethodPost, n.Data.(*node.DataRequestData).Method)
	assert.Equal(t, `{"a":1}`, n.Data.(*node.DataRequestData).Body)

	testCases := []struct {
		name    string
		id      string
		partial map[string]any
	}{
		{name: "unknown node", id: "ghost", partial: map[string]any{"condition": "true"}},
		{name: "type mismatch", id: "gate", partial: map[string]any{"condition": 42}},
		{name: "label not a string", id: "gate", partial: map[string]any{"label": 7}},
		{name: "bad method", id: "fetch", partial: map[string]any{"method": "BREW"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.editor.UpdateNodeData(f.ctx, tc.id, tc.partial)
			require.Error(t, err)
			assert.True(t, node.IsStructural(err), "got %v", err)
		})
	}
}

func TestHandleKey(t *testing.T) {
	newGraph := func(t *testing.T) *fixture {
		return newFixture(t,
			[]node.Node{testutil.Start("start"), testutil.Code("X", ""), testutil.Code("C", "")},
			testutil.Chain("start", "X", "C"),
		)
	}

	t.Run("deletes the selection with reconnection", func(t *testing.T) {
		f := newGraph(t)
		require.NoError(t, f.editor.Select(f.ctx, []string{"X"}))

		handled, err := f.editor.HandleKey(f.ctx, "Delete", FocusCanvas)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, []string{"start->C"}, testutil.EdgePairs(f.ctx, f.graph))

		selected, err := f.graph.Overlay().Selected(f.ctx)
		require.NoError(t, err)
		assert.Empty(t, selected)
	})

	t.Run("ignored while editing text", func(t *testing.T) {
		for _, focus := range []Focus{FocusInput, FocusTextarea, FocusContentEditable} {
			f := newGraph(t)
			require.NoError(t, f.editor.Select(f.ctx, []string{"X"}))
			handled, err := f.editor.HandleKey(f.ctx, "Backspace", focus)
			require.NoError(t, err)
			assert.False(t, handled, "focus %q", focus)
			assert.Len(t, f.graph.Snapshot(f.ctx).Nodes, 3)
		}
	})

	t.Run("other keys", func(t *testing.T) {
		f := newGraph(t)
		require.NoError(t, f.editor.Select(f.ctx, []string{"X"}))
		handled, err := f.editor.HandleKey(f.ctx, "Enter", FocusCanvas)
		require.NoError(t, err)
		assert.False(t, handled)
	})

	t.Run("selection with the start node", func(t *testing.T) {
		f := newGraph(t)
		require.NoError(t, f.editor.Select(f.ctx, []string{"start", "X"}))
		handled, err := f.editor.HandleKey(f.ctx, "Backspace", FocusNone)
		assert.True(t, handled)
		assert.True(t, errors.Is(err, ErrProtectedNode))
		assert.Len(t, f.graph.Snapshot(f.ctx).Nodes, 3)
	})
}

func TestBind(t *testing.T) {
	f := newFixture(t, []node.Node{testutil.Start("start"), testutil.Code("A", "")}, nil)

	bound := f.editor.Nodes(f.ctx)
	require.Len(t, bound, 2)
	require.NotNil(t, bound[0].RunChain)
	_, err := bound[0].RunChain(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, f.runner.runs)
	assert.Nil(t, bound[1].RunChain)

	bare := New(f.graph, nil, nil, nil).Bind(bound[1].Node)
	assert.Nil(t, bare.Run)
}

func TestDefaultStart(t *testing.T) {
	start := DefaultStart()
	require.NoError(t, start.Validate())
	assert.True(t, start.IsStart)
}
