package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteGrid writes src as main.hcl in a fresh temp dir and returns its path.
func WriteGrid(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("failed to write grid file: %v", err)
	}
	return path
}
