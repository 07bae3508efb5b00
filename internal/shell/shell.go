// Package shell runs the external commands behind the exec and sass steps
// through an embedded POSIX shell interpreter, so commands behave the same on
// every platform and need no system shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Command is a shell script together with the environment it runs in.
type Command struct {
	Script string
	// Dir is the working directory; empty means the process directory.
	Dir string
	// Env is added on top of the process environment.
	Env map[string]string
}

// Pipe runs the command with in as its standard input and returns its
// standard output. A non-zero exit status becomes an error carrying the
// command's standard error.
func Pipe(ctx context.Context, cmd Command, in []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	if err := Run(ctx, cmd, bytes.NewReader(in), &stdout, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, eris.Wrapf(err, "%s", msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Run parses and executes the command with the given standard streams.
func Run(ctx context.Context, cmd Command, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := ctxlog.FromContext(ctx)

	file, err := syntax.NewParser().Parse(strings.NewReader(cmd.Script), "command")
	if err != nil {
		return eris.Wrapf(err, "failed to parse command %q", cmd.Script)
	}

	opts := []interp.RunnerOption{
		interp.Env(environ(cmd.Env)),
		interp.StdIO(stdin, stdout, stderr),
		interp.Params("-e"),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return eris.Wrap(err, "failed to initialize runner")
	}

	logger.Debug("Running command.", "command", cmd.Script, "dir", cmd.Dir)
	if err := runner.Run(ctx, file); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return eris.Errorf("command %q exited with status %d", cmd.Script, status)
		}
		return eris.Wrapf(err, "command %q failed", cmd.Script)
	}
	return nil
}

// Quote renders s as a single shell word.
func Quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}

func environ(extra map[string]string) expand.Environ {
	vars := os.Environ()

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars = append(vars, fmt.Sprintf("%s=%s", k, extra[k]))
	}

	return expand.ListEnviron(vars...)
}
