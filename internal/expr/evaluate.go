// Package expr evaluates the boolean conditions of Conditional nodes.
//
// Conditions are written in the HCL expression syntax and evaluated against
// the run variables, with a small allowlist of cty standard library
// functions. Nothing else is reachable from a condition: there is no file,
// network or environment access, and for-expressions and splats are
// rejected at parse time.
package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Evaluator decides a condition against a set of variables.
type Evaluator interface {
	Evaluate(expression string, vars map[string]any) (bool, error)
}

// functions is the allowlist available inside conditions.
var functions = map[string]function.Function{
	"abs":      stdlib.AbsoluteFunc,
	"ceil":     stdlib.CeilFunc,
	"floor":    stdlib.FloorFunc,
	"max":      stdlib.MaxFunc,
	"min":      stdlib.MinFunc,
	"lower":    stdlib.LowerFunc,
	"upper":    stdlib.UpperFunc,
	"strlen":   stdlib.StrlenFunc,
	"length":   stdlib.LengthFunc,
	"contains": stdlib.ContainsFunc,
	"coalesce": stdlib.CoalesceFunc,
}

// Functions returns the names of the functions usable in a condition.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HCL is the Evaluator backed by the HCL expression language.
type HCL struct{}

// NewHCL returns an HCL condition evaluator.
func NewHCL() *HCL {
	return &HCL{}
}

// Evaluate parses and evaluates expression. The result must be a bool or
// convertible to one ("true"/"false" strings are); anything else is an
// *EvalError, as is a reference to an undefined variable.
func (h *HCL) Evaluate(expression string, vars map[string]any) (bool, error) {
	parsed, err := parse(expression)
	if err != nil {
		return false, err
	}

	variables, err := toVariables(vars)
	if err != nil {
		return false, &EvalError{Expression: expression, Err: err}
	}

	val, diags := parsed.Value(&hcl.EvalContext{Variables: variables, Functions: functions})
	if diags.HasErrors() {
		return false, &EvalError{Expression: expression, Err: diags}
	}
	if val.IsNull() || !val.IsWhollyKnown() {
		return false, &EvalError{Expression: expression, Err: fmt.Errorf("condition produced no value")}
	}

	b, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, &EvalError{
			Expression: expression,
			Err:        fmt.Errorf("condition must be a bool, got %s", val.Type().FriendlyName()),
		}
	}
	return b.True(), nil
}

// parse parses expression and checks it against the condition grammar.
func parse(expression string) (hclsyntax.Expression, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &EvalError{Expression: expression, Err: fmt.Errorf("condition is empty")}
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(expression), "condition", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &EvalError{Expression: expression, Err: diags}
	}
	if err := checkGrammar(parsed); err != nil {
		return nil, &EvalError{Expression: expression, Err: err}
	}

	fns := make(map[string]struct{})
	walkForFunctions(parsed, fns)
	for name := range fns {
		if _, ok := functions[name]; !ok {
			return nil, &EvalError{Expression: expression, Err: fmt.Errorf("function '%s' is not available in conditions", name)}
		}
	}
	return parsed, nil
}

func toVariables(vars map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		if !hclsyntax.ValidIdentifier(name) {
			continue
		}
		cv, err := ToCty(v)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", name, err)
		}
		out[name] = cv
	}
	return out, nil
}
