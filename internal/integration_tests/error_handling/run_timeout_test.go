package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/app"
	"github.com/vk/chaingrid/internal/testutil"
)

// Test for: a run that outlives its timeout stops, reports what it reached
// and returns the deadline error.
func TestErrorHandling_RunTimeout(t *testing.T) {
	// --- Arrange ---
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	gridHCL := `
		node "start" {
			kind  = "data"
			start = true
			endpoint = "` + srv.URL + `/slow"
		}

		node "never" {
			kind = "code"
			code = "print('unreachable')"
		}

		edge {
			from = "start"
			to   = "never"
		}
	`
	a, out := app.SetupAppTest(t, app.Config{
		Mode:       app.ModeRun,
		GridPath:   testutil.WriteGrid(t, gridHCL),
		RunTimeout: 200 * time.Millisecond,
	})

	// --- Act ---
	started := time.Now()
	err := a.Run(t.Context())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
	assert.Less(t, time.Since(started), 3*time.Second)

	report := out.String()
	assert.Regexp(t, `\n1\s+start\s+dataNode\s+failed`, report)
	assert.NotContains(t, report, "unreachable")
	assert.Contains(t, report, "The run was stopped before every reachable node was visited.")
}
