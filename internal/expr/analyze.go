package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal, suitable for use as a map key.
func TraversalKey(t hcl.Traversal) string {
	// e.g., quote.price
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// Analysis lists what an expression refers to.
type Analysis struct {
	// Roots are the top-level variable names referenced, sorted and unique.
	Roots []string
	// References are the full traversals, sorted by TraversalKey and unique.
	References []string
	// Functions are the called function names, sorted and unique.
	Functions []string

	rootOf map[string]string
}

// Analyze parses expression and reports the variables and functions it uses.
func Analyze(expression string) (*Analysis, error) {
	parsed, err := parse(expression)
	if err != nil {
		return nil, err
	}
	return extractReferencesAndFunctions(parsed), nil
}

// Unbound returns the references whose root variable is missing from vars.
func (a *Analysis) Unbound(vars map[string]any) []string {
	var out []string
	for _, ref := range a.References {
		if _, ok := vars[a.rootOf[ref]]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// extractReferencesAndFunctions walks an expression to find all unique
// variable traversals and function calls. The returned slices are sorted to
// ensure a deterministic order.
func extractReferencesAndFunctions(e hclsyntax.Expression) *Analysis {
	traversals := make(map[string]struct{})
	rootSet := make(map[string]struct{})
	functions := make(map[string]struct{})
	rootOf := make(map[string]string)

	for _, traversal := range e.Variables() {
		key := TraversalKey(traversal)
		traversals[key] = struct{}{}
		rootSet[traversal.RootName()] = struct{}{}
		rootOf[key] = traversal.RootName()
	}
	walkForFunctions(e, functions)

	return &Analysis{
		Roots:      sortedSet(rootSet),
		References: sortedSet(traversals),
		Functions:  sortedSet(functions),
		rootOf:     rootOf,
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(e hclsyntax.Expression, functions map[string]struct{}) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	}
}

// checkGrammar rejects constructs outside the condition grammar: for
// expressions and splats.
func checkGrammar(e hclsyntax.Expression) error {
	var bad hclsyntax.Expression
	_ = hclsyntax.VisitAll(e, func(n hclsyntax.Node) hcl.Diagnostics {
		if bad != nil {
			return nil
		}
		switch n := n.(type) {
		case *hclsyntax.ForExpr, *hclsyntax.SplatExpr:
			bad = n.(hclsyntax.Expression)
		}
		return nil
	})
	if bad != nil {
		r := bad.Range()
		return fmt.Errorf("construct at column %d is not allowed in conditions", r.Start.Column)
	}
	return nil
}
