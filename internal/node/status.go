package node

// Status is the execution state of a node within the latest run.
type Status int

const (
	// StatusPending indicates the node has not been reached.
	StatusPending Status = iota
	// StatusRunning indicates the node is currently executing.
	StatusRunning
	// StatusCompleted indicates the node's work finished without error.
	StatusCompleted
	// StatusFailed indicates the node's work returned an error. Its
	// successors still run.
	StatusFailed
	// StatusPassed indicates a Conditional node evaluated to true.
	StatusPassed
	// StatusBlocked indicates a Conditional node evaluated to false (or
	// failed to evaluate) and its successors were not explored.
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusPassed:
		return "passed"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
