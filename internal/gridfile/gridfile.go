// Package gridfile loads a chain graph from HCL grid files, so a chain can be
// seeded into the server or run headless without drawing it first.
//
// A grid is spread over one or more .hcl files:
//
//	node "start" {
//	  kind  = "code"
//	  start = true
//	  code  = "print('hello')"
//	}
//
//	node "quote" {
//	  kind     = "data"
//	  category = "stock"
//	  ticker   = "AAPL"
//	  position = [240, 0]
//	}
//
//	edge {
//	  from = "start"
//	  to   = "quote"
//	}
//
//	vars {
//	  x = 11
//	}
//
// Nodes from every file are merged into one graph. Loading never writes
// anything back.
package gridfile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/expr"
	"github.com/vk/chaingrid/internal/fsutil"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/nodeid"
	"github.com/vk/chaingrid/internal/template"
	"github.com/vk/chaingrid/internal/topologystore"
)

// Grid is a loaded chain graph plus the variables it declares.
type Grid struct {
	Snapshot topologystore.Snapshot
	// Vars is the evaluation context declared in vars blocks.
	Vars map[string]any
	// Conditions holds the analysis of every non-empty condition, keyed by
	// node id.
	Conditions map[string]*expr.Analysis
}

// hclGridFile represents the top-level structure of a grid file for decoding.
type hclGridFile struct {
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
	Vars  []*hclVars `hcl:"vars,block"`
}

type hclNode struct {
	ID        string    `hcl:"id,label"`
	Kind      string    `hcl:"kind"`
	Label     string    `hcl:"label,optional"`
	Start     bool      `hcl:"start,optional"`
	Position  []float64 `hcl:"position,optional"`
	Code      string    `hcl:"code,optional"`
	Method    string    `hcl:"method,optional"`
	Category  string    `hcl:"category,optional"`
	Ticker    string    `hcl:"ticker,optional"`
	Endpoint  string    `hcl:"endpoint,optional"`
	Body      string    `hcl:"body,optional"`
	Condition string    `hcl:"condition,optional"`
	DeclRange hcl.Range `hcl:",def_range"`
}

type hclEdge struct {
	From       string `hcl:"from"`
	To         string `hcl:"to"`
	FromHandle string `hcl:"from_handle,optional"`
	ToHandle   string `hcl:"to_handle,optional"`
}

type hclVars struct {
	Body hcl.Body `hcl:",remain"`
}

// kindAliases maps the kind names accepted in grid files to node kinds.
var kindAliases = map[string]node.Kind{
	"code":                       node.KindCode,
	"data":                       node.KindDataRequest,
	"data_request":               node.KindDataRequest,
	"conditional":                node.KindConditional,
	string(node.KindCode):        node.KindCode,
	string(node.KindDataRequest): node.KindDataRequest,
	string(node.KindConditional): node.KindConditional,
}

// Load parses the grid at path, which may be a single file or a directory
// searched recursively for .hcl files.
func Load(ctx context.Context, path string, resolver *datasource.Resolver) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid from path.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find grid files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl grid files found in %s", path)
	}

	parser := hclparse.NewParser()
	var parsed []*hclGridFile
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		decoded, err := decodeFile(file, f)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, decoded)
	}

	grid, err := assemble(parsed, resolver)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded grid.", "files", len(files), "nodes", len(grid.Snapshot.Nodes), "edges", len(grid.Snapshot.Edges))
	return grid, nil
}

// Parse parses a grid held in memory. filename is used in diagnostics.
func Parse(filename string, src []byte, resolver *datasource.Resolver) (*Grid, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	decoded, err := decodeFile(filename, f)
	if err != nil {
		return nil, err
	}
	return assemble([]*hclGridFile{decoded}, resolver)
}

func decodeFile(filename string, f *hcl.File) (*hclGridFile, error) {
	var parsed hclGridFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &parsed, nil
}

func assemble(files []*hclGridFile, resolver *datasource.Resolver) (*Grid, error) {
	grid := &Grid{Vars: make(map[string]any), Conditions: make(map[string]*expr.Analysis)}
	for _, f := range files {
		for _, hn := range f.Nodes {
			n, err := buildNode(hn, resolver)
			if err != nil {
				return nil, err
			}
			grid.Snapshot.Nodes = append(grid.Snapshot.Nodes, n)

			if strings.TrimSpace(hn.Condition) == "" || n.Kind != node.KindConditional {
				continue
			}
			a, err := expr.Analyze(hn.Condition)
			if err != nil {
				reason := err.Error()
				var evalErr *expr.EvalError
				if errors.As(err, &evalErr) {
					reason = evalErr.Err.Error()
				}
				return nil, &node.StructuralError{Op: "load grid", ID: hn.ID, Reason: fmt.Sprintf("%s: invalid condition %q: %s", hn.DeclRange.String(), hn.Condition, reason)}
			}
			grid.Conditions[hn.ID] = a
		}
	}
	for _, f := range files {
		for _, he := range f.Edges {
			grid.Snapshot.Edges = append(grid.Snapshot.Edges, node.Edge{
				ID:           nodeid.EdgeID(he.From, he.FromHandle, he.To, he.ToHandle),
				Source:       he.From,
				Target:       he.To,
				SourceHandle: he.FromHandle,
				TargetHandle: he.ToHandle,
			})
		}
		for _, hv := range f.Vars {
			vars, err := decodeVars(hv)
			if err != nil {
				return nil, err
			}
			for name := range vars {
				if _, dup := grid.Vars[name]; dup {
					return nil, fmt.Errorf("variable '%s' is declared more than once", name)
				}
			}
			maps.Copy(grid.Vars, vars)
		}
	}

	if err := grid.Snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

func buildNode(hn *hclNode, resolver *datasource.Resolver) (node.Node, error) {
	at := hn.DeclRange.String()
	if err := nodeid.Validate(hn.ID); err != nil {
		return node.Node{}, fmt.Errorf("%s: %w", at, err)
	}
	kind, ok := kindAliases[hn.Kind]
	if !ok {
		return node.Node{}, &node.StructuralError{Op: "load grid", ID: hn.ID, Reason: fmt.Sprintf("%s: unknown kind '%s'", at, hn.Kind)}
	}

	var pos node.Position
	switch len(hn.Position) {
	case 0:
	case 2:
		pos = node.Position{X: hn.Position[0], Y: hn.Position[1]}
	default:
		return node.Node{}, &node.StructuralError{Op: "load grid", ID: hn.ID, Reason: at + ": position must be [x, y]"}
	}

	label := hn.Label
	if label == "" {
		label = hn.ID
	}
	t := &template.Template{
		Type:      kind,
		Label:     label,
		Code:      hn.Code,
		Method:    hn.Method,
		Category:  hn.Category,
		Ticker:    hn.Ticker,
		Endpoint:  hn.Endpoint,
		Body:      hn.Body,
		Condition: hn.Condition,
	}
	if err := t.Validate(); err != nil {
		return node.Node{}, fmt.Errorf("%s: %w", at, err)
	}
	payload, err := t.Payload(resolver)
	if err != nil {
		return node.Node{}, fmt.Errorf("%s: %w", at, err)
	}

	return node.Node{
		ID:       hn.ID,
		Kind:     kind,
		Label:    label,
		Position: pos,
		IsStart:  hn.Start,
		Data:     payload,
	}, nil
}

func decodeVars(hv *hclVars) (map[string]any, error) {
	attrs, diags := hv.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode vars block: %w", diags)
	}
	vars := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate variable '%s': %w", name, diags)
		}
		native, err := expr.FromCty(val)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", name, err)
		}
		vars[name] = native
	}
	return vars, nil
}
