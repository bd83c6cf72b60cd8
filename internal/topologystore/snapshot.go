package topologystore

import (
	"fmt"

	"github.com/vk/chaingrid/internal/node"
)

// Snapshot is a value copy of a graph.
type Snapshot struct {
	Nodes []node.Node `json:"nodes"`
	Edges []node.Edge `json:"edges"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		Nodes: make([]node.Node, len(s.Nodes)),
		Edges: make([]node.Edge, len(s.Edges)),
	}
	for i, n := range s.Nodes {
		c.Nodes[i] = n.Clone()
	}
	copy(c.Edges, s.Edges)
	return c
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (node.Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return node.Node{}, false
}

// Start returns the start node of the snapshot.
func (s Snapshot) Start() (node.Node, bool) {
	for _, n := range s.Nodes {
		if n.IsStart {
			return n, true
		}
	}
	return node.Node{}, false
}

// Validate checks the structural invariants of the graph.
func (s Snapshot) Validate() error {
	ids := make(map[string]struct{}, len(s.Nodes))
	starts := 0
	for _, n := range s.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := ids[n.ID]; dup {
			return &node.StructuralError{Op: "validate", ID: n.ID, Reason: "duplicate node id"}
		}
		ids[n.ID] = struct{}{}
		if n.IsStart {
			starts++
		}
	}
	if starts != 1 {
		return &node.StructuralError{Op: "validate", Reason: fmt.Sprintf("graph must have exactly one start node, found %d", starts)}
	}

	edgeIDs := make(map[string]struct{}, len(s.Edges))
	for _, e := range s.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			return &node.StructuralError{Op: "validate", ID: e.ID, Reason: "duplicate edge id"}
		}
		edgeIDs[e.ID] = struct{}{}
		if _, ok := ids[e.Source]; !ok {
			return &node.StructuralError{Op: "validate", ID: e.ID, Reason: "edge source '" + e.Source + "' does not exist"}
		}
		if _, ok := ids[e.Target]; !ok {
			return &node.StructuralError{Op: "validate", ID: e.ID, Reason: "edge target '" + e.Target + "' does not exist"}
		}
	}
	return nil
}
