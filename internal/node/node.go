// Package node defines the vertices and edges of a chain graph.
//
// A node is one of a closed set of kinds. Each kind carries its own payload
// type, and the payload is the only place kind-specific fields live. Code that
// dispatches on a node switches on the concrete payload type, so adding a kind
// means adding a payload type and updating every switch.
package node

// Kind identifies which payload variant a node carries.
type Kind string

const (
	// KindCode runs a user script.
	KindCode Kind = "codeNode"
	// KindDataRequest issues an HTTP request to a data source endpoint.
	KindDataRequest Kind = "dataNode"
	// KindConditional evaluates a boolean expression and gates its outgoing path.
	KindConditional Kind = "conditionalNode"
)

// Kinds is the full set of supported node kinds.
var Kinds = []Kind{KindCode, KindDataRequest, KindConditional}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCode, KindDataRequest, KindConditional:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Position is the node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single vertex of the chain graph.
type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"type"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
	// IsStart marks the single protected entry node of a graph.
	IsStart bool    `json:"isStart"`
	Data    Payload `json:"data"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	c := n
	if n.Data != nil {
		c.Data = n.Data.clone()
	}
	return c
}

// Validate checks that the node's kind and payload agree.
func (n Node) Validate() error {
	if n.ID == "" {
		return &StructuralError{Op: "validate", Reason: "node id is empty"}
	}
	if !n.Kind.Valid() {
		return &StructuralError{Op: "validate", ID: n.ID, Reason: "unknown kind " + string(n.Kind)}
	}
	if n.Data == nil {
		return &StructuralError{Op: "validate", ID: n.ID, Reason: "payload is missing"}
	}
	if n.Data.Kind() != n.Kind {
		return &StructuralError{
			Op:     "validate",
			ID:     n.ID,
			Reason: "payload of kind " + string(n.Data.Kind()) + " on node of kind " + string(n.Kind),
		}
	}
	return nil
}

// Edge is a directed link between two nodes. Handles name the connection
// points on each side; they are carried through reconnection but have no
// effect on execution.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Touches reports whether the edge has id as either endpoint.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}
