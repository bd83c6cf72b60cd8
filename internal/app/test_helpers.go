package app

import (
	"os"
	"testing"

	"github.com/vk/chaingrid/internal/registry"
	"github.com/vk/chaingrid/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. The config is
// validated first; the log level is forced to debug.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid app config: %v", err)
	}

	logBuffer := &testutil.SafeBuffer{}
	testApp := NewApp(logBuffer, validated, modules...)

	t.Cleanup(func() {
		if os.Getenv("CHAINGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
