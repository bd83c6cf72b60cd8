package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/app"
	"github.com/vk/chaingrid/internal/testutil"
)

const branchingGrid = `
	node "start" {
		kind  = "code"
		start = true
		code  = "print('go')"
	}

	node "gate" {
		kind      = "conditional"
		condition = "x > 10 && lower(name) == \"aapl\""
	}

	node "high" {
		kind = "code"
		code = "print('took high road')"
	}

	node "low" {
		kind = "code"
		code = "print('took low road')"
	}

	edge {
		from = "start"
		to   = "gate"
	}

	edge {
		from = "gate"
		to   = "high"
	}

	edge {
		from = "start"
		to   = "low"
	}

	vars {
		x    = 11
		name = "AAPL"
	}
`

// Test for: depth-first order follows edge order, and a false condition
// prunes only its own subtree.
func TestCoreExecution_ConditionalBranching(t *testing.T) {
	testCases := []struct {
		name     string
		vars     map[string]any
		wantRows []string
		absent   string
	}{
		{
			name: "condition passes",
			wantRows: []string{
				`\n1\s+start\s`,
				`\n2\s+gate\s+conditionalNode\s+passed`,
				`\n3\s+high\s+codeNode\s+completed\s+took high road`,
				`\n4\s+low\s+codeNode\s+completed\s+took low road`,
			},
		},
		{
			name: "condition fails",
			vars: map[string]any{"x": 5},
			wantRows: []string{
				`\n2\s+gate\s+conditionalNode\s+blocked`,
				`\n3\s+low\s+codeNode\s+completed`,
			},
			absent: "took high road",
		},
		{
			name: "condition cannot be evaluated",
			vars: map[string]any{"x": "eleven"},
			wantRows: []string{
				`\n2\s+gate\s+conditionalNode\s+blocked\s+failed to evaluate condition`,
				`\n3\s+low\s+codeNode\s+completed`,
			},
			absent: "took high road",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			a, out := app.SetupAppTest(t, app.Config{
				Mode:     app.ModeRun,
				GridPath: testutil.WriteGrid(t, branchingGrid),
				Vars:     tc.vars,
			})

			// --- Act ---
			require.NoError(t, a.Run(t.Context()))

			// --- Assert ---
			report := out.String()
			for _, row := range tc.wantRows {
				assert.Regexp(t, row, report)
			}
			if tc.absent != "" {
				assert.NotContains(t, report, tc.absent)
			}
		})
	}
}
