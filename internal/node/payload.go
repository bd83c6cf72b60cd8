package node

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Payload is the kind-specific data of a node. The set of implementations is
// closed to this package.
type Payload interface {
	Kind() Kind
	clone() Payload
}

// CodeData is the payload of a Code node.
type CodeData struct {
	Script string `json:"code"`
}

func (*CodeData) Kind() Kind { return KindCode }

func (d *CodeData) clone() Payload {
	c := *d
	return &c
}

// HTTP methods a DataRequest node may use.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// Methods lists every accepted request method.
var Methods = []string{MethodGet, MethodPost, MethodPut, MethodDelete}

// NormalizeMethod upper-cases m and reports whether it is accepted. An empty
// method normalizes to GET.
func NormalizeMethod(m string) (string, bool) {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return MethodGet, true
	}
	for _, allowed := range Methods {
		if m == allowed {
			return m, true
		}
	}
	return m, false
}

// DataRequestData is the payload of a DataRequest node. Endpoint is derived
// from Category and Ticker whenever either changes.
type DataRequestData struct {
	Method   string `json:"method"`
	Category string `json:"dataSourceCategory,omitempty"`
	Ticker   string `json:"ticker,omitempty"`
	Endpoint string `json:"endpoint"`
	Body     string `json:"body,omitempty"`
}

func (*DataRequestData) Kind() Kind { return KindDataRequest }

func (d *DataRequestData) clone() Payload {
	c := *d
	return &c
}

// ConditionalData is the payload of a Conditional node.
type ConditionalData struct {
	Condition string `json:"condition,omitempty"`
}

func (*ConditionalData) Kind() Kind { return KindConditional }

func (d *ConditionalData) clone() Payload {
	c := *d
	return &c
}

// NewPayload returns an empty payload for kind.
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindCode:
		return &CodeData{}, nil
	case KindDataRequest:
		return &DataRequestData{Method: MethodGet}, nil
	case KindConditional:
		return &ConditionalData{}, nil
	}
	return nil, &StructuralError{Op: "payload", Reason: "unknown kind " + string(kind)}
}

// Merge overlays partial onto a copy of p and returns the result. Keys that
// do not belong to the payload are ignored. A null value resets the field to
// its zero value. A value whose type does not match the payload field is
// rejected with a StructuralError and p is untouched.
func Merge(p Payload, partial map[string]any) (Payload, error) {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return nil, &StructuralError{Op: "merge", Reason: "payload is not serializable", Err: err}
	}
	fields := make(map[string]any)
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, &StructuralError{Op: "merge", Reason: "payload is not an object", Err: err}
	}
	for k, v := range partial {
		if v == nil {
			if cur, ok := fields[k]; ok {
				fields[k] = zeroLike(cur)
			}
			continue
		}
		fields[k] = v
	}

	merged, err := sonic.Marshal(fields)
	if err != nil {
		return nil, &StructuralError{Op: "merge", Reason: "partial data is not serializable", Err: err}
	}
	out := p.clone()
	if err := sonic.Unmarshal(merged, out); err != nil {
		return nil, &StructuralError{Op: "merge", Reason: "partial data does not fit the payload", Err: err}
	}
	return out, nil
}

// zeroLike returns the zero value of the JSON type of v. Unmarshaling null
// leaves a Go value untouched, so clearing needs a typed zero.
func zeroLike(v any) any {
	switch v.(type) {
	case string:
		return ""
	case float64:
		return 0
	case bool:
		return false
	case []any:
		return []any{}
	case map[string]any:
		return map[string]any{}
	default:
		return nil
	}
}
