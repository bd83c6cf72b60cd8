package expr

import "fmt"

// EvalError reports a condition that could not be parsed or evaluated. The
// executor treats it as a false condition.
type EvalError struct {
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("failed to evaluate condition %q: %v", e.Expression, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
