package datarequest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/registry"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        string
}

func newServer(t *testing.T, status int, respBody string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = captured{method: r.Method, path: r.URL.RequestURI(), contentType: r.Header.Get("Content-Type"), body: string(b)}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func invocation(data *node.DataRequestData) *registry.Invocation {
	return &registry.Invocation{Node: node.Node{ID: "fetch", Kind: node.KindDataRequest, Data: data}}
}

func TestExecute_GetParsesJSON(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"price": 187.5, "symbol": "AAPL"}`, &got)
	h := NewHandler(NewClient(time.Second))

	res, err := h.Execute(context.Background(), invocation(&node.DataRequestData{
		Method: "GET", Endpoint: srv.URL + "/quote/AAPL", Body: `{"ignored": true}`,
	}))
	require.NoError(t, err)

	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/quote/AAPL", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Empty(t, got.body, "GET requests never carry a body")

	out := res.Output.(map[string]any)
	assert.Equal(t, http.StatusOK, out["status_code"])
	assert.Equal(t, map[string]any{"price": 187.5, "symbol": "AAPL"}, out["data"])
}

func TestExecute_PostSendsBody(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, `{"ok": true}`, &got)
	h := NewHandler(NewClient(time.Second))

	_, err := h.Execute(context.Background(), invocation(&node.DataRequestData{
		Method: "post", Endpoint: srv.URL + "/items", Body: `{"key": "value"}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, `{"key": "value"}`, got.body)
}

func TestExecute_Failures(t *testing.T) {
	var got captured
	notJSON := newServer(t, http.StatusOK, "<html>nope</html>", &got)
	serverError := newServer(t, http.StatusInternalServerError, `{"error": "down"}`, &got)

	testCases := []struct {
		name       string
		data       *node.DataRequestData
		wantStatus any
	}{
		{name: "empty endpoint", data: &node.DataRequestData{Method: "GET"}},
		{name: "bad method", data: &node.DataRequestData{Method: "BREW", Endpoint: notJSON.URL}},
		{name: "unreachable", data: &node.DataRequestData{Method: "GET", Endpoint: "http://127.0.0.1:1/x"}},
		{name: "not json", data: &node.DataRequestData{Method: "GET", Endpoint: notJSON.URL}, wantStatus: http.StatusOK},
		{name: "error status", data: &node.DataRequestData{Method: "DELETE", Endpoint: serverError.URL}, wantStatus: http.StatusInternalServerError},
	}

	h := NewHandler(NewClient(time.Second))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := h.Execute(context.Background(), invocation(tc.data))
			require.Error(t, err)
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr), "want *RequestError, got %T", err)
			assert.True(t, res.Pass, "request failures never gate the chain")
			if tc.wantStatus != nil {
				assert.Equal(t, tc.wantStatus, res.Output.(map[string]any)["status_code"])
			}
		})
	}
}

func TestExecute_WrongPayload(t *testing.T) {
	h := NewHandler(NewClient(time.Second))
	_, err := h.Execute(context.Background(), &registry.Invocation{Node: node.Node{ID: "x", Data: &node.CodeData{}}})
	assert.True(t, node.IsStructural(err))
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	_, ok := r.Handler(node.KindDataRequest)
	assert.True(t, ok)
}
