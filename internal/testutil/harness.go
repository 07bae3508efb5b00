package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes every file below root. The map keys are slash separated
// paths relative to root; intermediate directories are created.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// TempProject creates a temporary project directory holding the given files
// and returns its path. It is removed when the test ends.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := os.MkdirTemp("", ".tmp-assetgrid-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	// Resolve symlinks so paths compare equal to what the watcher reports.
	root, err = filepath.EvalSymlinks(root)
	require.NoError(t, err)

	WriteFiles(t, root, files)
	return root
}

// LogOnFailure dumps the captured log output when the test fails or when
// ASSETGRID_TEST_LOGS is set.
func LogOnFailure(t *testing.T, logs *SafeBuffer) {
	t.Helper()
	t.Cleanup(func() {
		if t.Failed() || os.Getenv("ASSETGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
}
