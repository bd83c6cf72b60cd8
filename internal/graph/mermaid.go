package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/chaingrid/internal/node"
)

// MermaidOptions configures Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR").
	Direction string
}

// DrawMermaid renders the graph as a Mermaid flowchart, top-down.
func DrawMermaid(ctx context.Context, g Graph) string {
	return DrawMermaidWithOptions(ctx, g, MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions renders the graph as a Mermaid flowchart. Node ids
// are replaced by positional aliases since editor ids are not valid Mermaid
// identifiers in general.
func DrawMermaidWithOptions(ctx context.Context, g Graph, opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	view := g.View(ctx)
	alias := make(map[string]string, len(view.Nodes))
	for i, n := range view.Nodes {
		alias[n.ID] = fmt.Sprintf("n%d", i)
	}

	for _, n := range view.Nodes {
		label := mermaidLabel(n.Node)
		switch n.Kind {
		case node.KindConditional:
			sb.WriteString(fmt.Sprintf("    %s{\"%s\"}\n", alias[n.ID], label))
		case node.KindDataRequest:
			sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", alias[n.ID], label))
		default:
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", alias[n.ID], label))
		}
	}

	for _, e := range view.Edges {
		if e.SourceHandle != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", alias[e.Source], edgeText.Replace(e.SourceHandle), alias[e.Target]))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", alias[e.Source], alias[e.Target]))
	}

	for _, n := range view.Nodes {
		switch {
		case n.IsStart:
			sb.WriteString(fmt.Sprintf("    style %s fill:#90EE90\n", alias[n.ID]))
		case n.Highlighted:
			sb.WriteString(fmt.Sprintf("    style %s fill:#87CEEB\n", alias[n.ID]))
		}
	}
	return sb.String()
}

// edgeText escapes the characters that end or quote a mermaid edge label.
var edgeText = strings.NewReplacer(`"`, "#quot;", "|", "#124;")

func mermaidLabel(n node.Node) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	return strings.ReplaceAll(label, `"`, "#quot;")
}
