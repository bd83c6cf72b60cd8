package node

import (
	"errors"
	"fmt"
)

// StructuralError reports a graph or payload that violates the data model:
// an unknown kind, a malformed template, a duplicate id or a dangling edge.
type StructuralError struct {
	Op     string
	ID     string
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	msg := "structural error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s on '%s'", msg, e.ID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err is or wraps a *StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
