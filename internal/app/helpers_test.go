package app

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/hcl"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// setupApp writes a project to a temp directory and builds an App from its
// assetgrid.hcl. Extra modules are registered next to the core modules.
func setupApp(t *testing.T, files map[string]string, extra ...registry.Module) (*App, *testutil.SafeBuffer, string) {
	t.Helper()

	app, logs, dir, err := newTestApp(t, files, extra...)
	require.NoError(t, err)
	return app, logs, dir
}

func newTestApp(t *testing.T, files map[string]string, extra ...registry.Module) (*App, *testutil.SafeBuffer, string, error) {
	t.Helper()

	dir := testutil.TempProject(t, files)
	logs := &testutil.SafeBuffer{}
	testutil.LogOnFailure(t, logs)

	cfg, err := NewConfig(Config{
		File:      filepath.Join(dir, "assetgrid.hcl"),
		Workers:   4,
		LogLevel:  "debug",
		LogFormat: "text",
		NoColor:   true,
	})
	require.NoError(t, err)

	modules := append(coreModules(logs), extra...)
	app, err := NewApp(logs, cfg, hcl.NewLoader(), modules...)
	if app != nil {
		app.opener = func(string) error { return nil }
	}
	return app, logs, dir, err
}
