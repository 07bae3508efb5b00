package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskFile = `
task "copy" {
  description = "Copy text files"
  src         = ["src/*.txt"]

  step "dest" {
    dir = "out"
  }
}

task "broken" {
  src = ["src/*.txt"]

  step "exec" {
    command = "exit 3"
  }
}

group "default" {
  description = "Everything"
  run         = ["copy"]
}

group "all" {
  run = parallel("copy", series("default", "reload"))
}
`

func writeProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.txt"), []byte("a"), 0o644))
	file := filepath.Join(dir, "assetgrid.hcl")
	require.NoError(t, os.WriteFile(file, []byte(taskFile), 0o644))
	return dir, file
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := Execute(context.Background(), out, args)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	require.True(t, eris.As(err, &exitErr), "expected *ExitError, got %T", err)
	return exitErr.Code
}

func TestExecute_RunsDefaultUnit(t *testing.T) {
	dir, file := writeProject(t)

	_, err := execute(t, "--file", file, "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "a.txt"))
}

func TestExecute_RunCommand(t *testing.T) {
	dir, file := writeProject(t)

	_, err := execute(t, "run", "copy", "-f", file)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "a.txt"))
}

func TestExecute_ExitCodes(t *testing.T) {
	_, file := writeProject(t)

	cases := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{name: "failing task", args: []string{"-f", file, "broken"}, code: ExitFailure, contains: "broken failed"},
		{name: "unknown unit", args: []string{"-f", file, "nope"}, code: ExitUsage, contains: "unknown unit"},
		{name: "missing task file", args: []string{"-f", filepath.Join(t.TempDir(), "missing.hcl")}, code: ExitUsage, contains: "missing.hcl"},
		{name: "unknown flag", args: []string{"--bogus"}, code: ExitUsage, contains: "unknown flag"},
		{name: "invalid log level", args: []string{"-f", file, "--log-level", "loud"}, code: ExitUsage, contains: "invalid log level"},
		{name: "invalid open mode", args: []string{"-f", file, "--open", "tunnel"}, code: ExitUsage, contains: "invalid open mode"},
		{name: "run without units", args: []string{"run", "-f", file}, code: ExitUsage, contains: "requires at least 1 arg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.code, exitCode(t, err))
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestExecute_FailurePrintsBanner(t *testing.T) {
	_, file := writeProject(t)

	out, err := execute(t, "-f", file, "--no-color", "--log-level", "error", "copy", "broken")
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Equal(t, "copy, broken failed", err.Error())

	assert.Contains(t, out, "✖ broken failed\n")
	assert.Regexp(t, `  \| .*task "broken": step 1 \(exec\) failed`, out)
}

func TestExecute_List(t *testing.T) {
	_, file := writeProject(t)

	out, err := execute(t, "list", "-f", file)
	require.NoError(t, err)

	assert.Contains(t, out, "Tasks:\n")
	assert.Contains(t, out, "Groups:\n")
	assert.Contains(t, out, "Built-ins:\n")
	assert.Regexp(t, `\* copy: +Copy text files`, out)
	assert.Regexp(t, `\* default: +Everything`, out)
	assert.Contains(t, out, "* watch-files:")
	assert.Regexp(t, `Step types:\n .*\bdest\b.*\bsass_glob\b`, out)
}

func TestExecute_Graph(t *testing.T) {
	_, file := writeProject(t)

	out, err := execute(t, "graph", "all", "-f", file, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "all (group)\n")
	assert.Contains(t, out, "copy (task)")
	assert.Contains(t, out, "reload (built-in)")

	_, err = execute(t, "graph", "nope", "-f", file)
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestExecute_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "assetgrid [unit...]")
}
