// Package datarequest executes DataRequest nodes: one HTTP request to the
// node's endpoint, with the JSON response parsed into the node output.
package datarequest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/registry"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Module implements the registry.Module interface for this package.
type Module struct {
	Client *http.Client
}

// Register registers the DataRequest handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = NewClient(0)
	}
	r.RegisterHandler(node.KindDataRequest, &Handler{client: client})
}

// Handler performs the request of a DataRequest node.
type Handler struct {
	client *http.Client
}

// NewHandler returns a Handler using client.
func NewHandler(client *http.Client) *Handler {
	return &Handler{client: client}
}

// RequestError reports a request that could not be sent, failed at the
// transport level, returned an error status or returned a body that is not
// JSON.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Execute sends the request. The output is a map with "status_code" and,
// when the body parsed as JSON, "data".
func (h *Handler) Execute(ctx context.Context, inv *registry.Invocation) (registry.Result, error) {
	data, ok := inv.Node.Data.(*node.DataRequestData)
	if !ok {
		return registry.Result{}, &node.StructuralError{Op: "data request", ID: inv.Node.ID, Reason: "node does not carry a data request payload"}
	}

	method, ok := node.NormalizeMethod(data.Method)
	if !ok {
		return registry.Result{Pass: true}, &RequestError{Method: data.Method, URL: data.Endpoint, Err: fmt.Errorf("unsupported method")}
	}
	if data.Endpoint == "" {
		return registry.Result{Pass: true}, &RequestError{Method: method, Err: fmt.Errorf("endpoint is empty")}
	}

	logger := ctxlog.FromContext(ctx).With("method", method, "url", data.Endpoint)
	logger.Info("Making HTTP request.")

	var body io.Reader
	if method != node.MethodGet && data.Body != "" {
		body = bytes.NewBufferString(data.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, data.Endpoint, body)
	if err != nil {
		return registry.Result{Pass: true}, &RequestError{Method: method, URL: data.Endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return registry.Result{Pass: true}, &RequestError{Method: method, URL: data.Endpoint, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response.", "status", resp.Status)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	output := map[string]any{"status_code": resp.StatusCode}
	if err != nil {
		return registry.Result{Pass: true, Output: output}, &RequestError{Method: method, URL: data.Endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if len(bytes.TrimSpace(raw)) > 0 {
		var parsed any
		if err := sonic.Unmarshal(raw, &parsed); err != nil {
			return registry.Result{Pass: true, Output: output}, &RequestError{Method: method, URL: data.Endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not JSON: %w", err)}
		}
		output["data"] = parsed
		logger.Debug("Parsed response body.", "data", parsed)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return registry.Result{Pass: true, Output: output}, &RequestError{Method: method, URL: data.Endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", http.StatusText(resp.StatusCode))}
	}
	return registry.Result{Pass: true, Output: output}, nil
}
