// Package scripting runs the scripts held by Code nodes.
//
// Scripts are Starlark programs. They run in a fresh, sandboxed interpreter
// per execution: the only predeclared names are `vars` (the frozen run
// variables) and the `json` module, output goes through `print`, and the
// interpreter is bounded by a step budget and the caller's context.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/chaingrid/internal/ctxlog"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkjson"
	"go.starlark.net/syntax"
)

// Scripter executes script text.
type Scripter interface {
	Execute(ctx context.Context, script string, vars map[string]any) (*Output, error)
}

// Output is what a script produced.
type Output struct {
	// Printed holds every line passed to print, in order.
	Printed []string `json:"printed"`
	// Globals holds the script's top-level bindings that have a plain data
	// representation. Functions and modules are left out.
	Globals map[string]any `json:"globals,omitempty"`
}

// ExecutionError reports a script that failed to compile or raised at run
// time.
type ExecutionError struct {
	Err error
	// Backtrace is the Starlark call stack when the error is a runtime error.
	Backtrace string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("script execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Starlark is the Scripter backed by go.starlark.net.
type Starlark struct {
	maxSteps uint64
}

// NewStarlark returns a Starlark scripter. maxSteps bounds the number of
// interpreter steps per execution; zero means unbounded.
func NewStarlark(maxSteps uint64) *Starlark {
	return &Starlark{maxSteps: maxSteps}
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Execute runs script. A compile or runtime failure, an exhausted step
// budget and a cancelled context are all reported as *ExecutionError.
func (s *Starlark) Execute(ctx context.Context, script string, vars map[string]any) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	out := &Output{Printed: []string{}}

	if err := ctx.Err(); err != nil {
		return out, &ExecutionError{Err: err}
	}

	varsDict, err := toStarlarkDict(vars)
	if err != nil {
		return out, &ExecutionError{Err: fmt.Errorf("converting vars: %w", err)}
	}
	varsDict.Freeze()

	thread := &starlark.Thread{
		Name: "code-node",
		Print: func(_ *starlark.Thread, msg string) {
			out.Printed = append(out.Printed, msg)
			logger.Info("Script output.", "line", msg)
		},
	}
	if s.maxSteps > 0 {
		thread.SetMaxExecutionSteps(s.maxSteps)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	predeclared := starlark.StringDict{
		"vars": varsDict,
		"json": starlarkjson.Module,
	}
	globals, err := starlark.ExecFileOptions(fileOptions, thread, "code.star", script, predeclared)
	if err != nil {
		execErr := &ExecutionError{Err: err}
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			execErr.Backtrace = evalErr.Backtrace()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			execErr.Err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return out, execErr
	}

	out.Globals = exportGlobals(globals)
	return out, nil
}

func exportGlobals(globals starlark.StringDict) map[string]any {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	exported := make(map[string]any)
	for _, name := range names {
		if v, err := fromStarlark(globals[name]); err == nil {
			exported[name] = v
		}
	}
	if len(exported) == 0 {
		return nil
	}
	return exported
}
