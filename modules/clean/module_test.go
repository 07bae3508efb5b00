package clean

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, "dist", "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "dist", "css", "a.css"), []byte("a"), 0o644))
	env := &registry.Env{Cwd: cwd}

	_, err := Clean(context.Background(), env, &Input{Paths: []string{"dist", "missing"}}, nil)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(cwd, "dist"))

	// A second run over a missing directory succeeds.
	_, err = Clean(context.Background(), env, &Input{Paths: []string{"dist"}}, nil)
	require.NoError(t, err)
}

func TestClean_Refuses(t *testing.T) {
	cwd := t.TempDir()
	env := &registry.Env{Cwd: cwd}

	cases := [][]string{
		{"."},
		{".."},
		{"../sibling"},
		{filepath.Dir(cwd)},
		{""},
	}
	for _, paths := range cases {
		_, err := Clean(context.Background(), env, &Input{Paths: paths}, nil)
		require.Error(t, err, "paths %v", paths)
	}
	assert.DirExists(t, cwd)
}

func TestClean_Force(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	cwd := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(cwd, 0o755))

	_, err := Clean(context.Background(), &registry.Env{Cwd: cwd}, &Input{Paths: []string{"../outside"}, Force: true}, nil)
	require.NoError(t, err)
	assert.NoDirExists(t, outside)
}
