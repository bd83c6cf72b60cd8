package template

import "github.com/vk/chaingrid/internal/node"

// Catalog returns the built-in palette entries.
func Catalog() []Template {
	return []Template{
		{Type: node.KindCode, Label: "Print", Code: `print("Hello from chaingrid")`},
		{Type: node.KindCode, Label: "Set x", Code: "x = 42\nprint(\"x =\", x)"},
		{Type: node.KindDataRequest, Label: "GET Data", Method: node.MethodGet},
		{Type: node.KindDataRequest, Label: "POST Data", Method: node.MethodPost, Body: `{"key": "value"}`},
		{Type: node.KindConditional, Label: "Gate", Condition: "x > 10"},
	}
}
