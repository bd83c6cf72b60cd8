// Package template describes the draggable node templates offered by the
// palette and the JSON records that carry them through a drag-and-drop
// transfer.
package template

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/node"
)

// TransferType is the data transfer tag a template payload travels under.
const TransferType = "application/reactflow"

// Template is the record created when a palette entry is dragged.
type Template struct {
	Type      node.Kind `json:"type"`
	Label     string    `json:"label"`
	Code      string    `json:"code,omitempty"`
	Method    string    `json:"method,omitempty"`
	Category  string    `json:"dataSourceCategory,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Body      string    `json:"body,omitempty"`
	Condition string    `json:"condition,omitempty"`
}

// Decode parses a transfer payload. The transfer type must be TransferType
// and the record must satisfy the schema of its kind.
func Decode(transferType, payload string) (*Template, error) {
	if transferType != TransferType {
		return nil, &node.StructuralError{Op: "decode template", Reason: fmt.Sprintf("unsupported transfer type '%s'", transferType)}
	}
	var t Template
	if err := sonic.UnmarshalString(payload, &t); err != nil {
		return nil, &node.StructuralError{Op: "decode template", Reason: "payload is not a template record", Err: err}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Encode renders t as a transfer payload.
func (t *Template) Encode() (string, error) {
	s, err := sonic.MarshalString(t)
	if err != nil {
		return "", fmt.Errorf("encoding template: %w", err)
	}
	return s, nil
}

// Validate checks t against the schema of its kind.
func (t *Template) Validate() error {
	fail := func(reason string) error {
		return &node.StructuralError{Op: "validate template", ID: t.Label, Reason: reason}
	}

	if !t.Type.Valid() {
		return fail(fmt.Sprintf("unknown node type '%s'", t.Type))
	}
	if strings.TrimSpace(t.Label) == "" {
		return fail("label is required")
	}

	switch t.Type {
	case node.KindCode:
		if strings.TrimSpace(t.Code) == "" {
			return fail("code template requires a script")
		}
	case node.KindDataRequest:
		if _, ok := node.NormalizeMethod(t.Method); !ok {
			return fail(fmt.Sprintf("unsupported method '%s'", t.Method))
		}
		if !datasource.Known(t.Category) {
			return fail(fmt.Sprintf("unknown data source category '%s'", t.Category))
		}
	case node.KindConditional:
		// condition is optional; an empty condition passes at run time.
	}
	return nil
}

// Payload builds the node payload for t. For a DataRequest with a category,
// the endpoint is derived with r and overrides any endpoint in the template.
func (t *Template) Payload(r *datasource.Resolver) (node.Payload, error) {
	switch t.Type {
	case node.KindCode:
		return &node.CodeData{Script: t.Code}, nil
	case node.KindDataRequest:
		method, _ := node.NormalizeMethod(t.Method)
		d := &node.DataRequestData{
			Method:   method,
			Category: t.Category,
			Ticker:   t.Ticker,
			Endpoint: t.Endpoint,
			Body:     t.Body,
		}
		if t.Category != "" {
			endpoint, err := r.Endpoint(t.Category, t.Ticker)
			if err != nil {
				return nil, err
			}
			d.Endpoint = endpoint
		}
		return d, nil
	case node.KindConditional:
		return &node.ConditionalData{Condition: t.Condition}, nil
	}
	return nil, &node.StructuralError{Op: "template payload", Reason: fmt.Sprintf("unknown node type '%s'", t.Type)}
}
