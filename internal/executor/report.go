package executor

import (
	"time"

	"github.com/vk/chaingrid/internal/node"
)

// Report summarizes a chain run.
type Report struct {
	RunID   string `json:"run_id"`
	StartID string `json:"start_id"`
	// Visited lists node ids in the order they were reached.
	Visited []string `json:"visited"`
	// Outcomes holds one entry per visited node, in visit order.
	Outcomes   []Outcome `json:"outcomes"`
	Canceled   bool      `json:"canceled"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Outcome is the result of executing one node.
type Outcome struct {
	NodeID string      `json:"node_id"`
	Kind   node.Kind   `json:"kind"`
	Status node.Status `json:"status"`
	Output any         `json:"output,omitempty"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`
}

// Outcome returns the outcome of node id, if it was visited.
func (r *Report) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.NodeID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns how many visited nodes ended in each status.
func (r *Report) Counts() map[node.Status]int {
	counts := make(map[node.Status]int)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}
