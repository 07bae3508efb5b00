// Package exec implements the `exec` step, which pipes every file through a
// shell command. It hosts the external tools (autoprefixer, csscomb, ...)
// that have no Go counterpart.
package exec

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/shell"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the exec step.
type Input struct {
	Command string `hcl:"command"`
	// Extname, when set, replaces the extension of every output file.
	Extname *string           `hcl:"extname,optional"`
	Env     map[string]string `hcl:"env,optional"`
}

// Exec runs the command once per file, file contents on stdin, replacing the
// contents with stdout. ASSETGRID_FILE and ASSETGRID_TASK are exported.
func Exec(ctx context.Context, env *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	if strings.TrimSpace(input.Command) == "" {
		return nil, eris.New("command must not be empty")
	}
	logger := ctxlog.FromContext(ctx)

	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		vars := map[string]string{
			"ASSETGRID_FILE": f.Path,
			"ASSETGRID_TASK": env.Task,
		}
		for k, v := range input.Env {
			vars[k] = v
		}

		result, err := shell.Pipe(ctx, shell.Command{Script: input.Command, Dir: env.Cwd, Env: vars}, f.Contents)
		if err != nil {
			return nil, eris.Wrapf(err, "processing %s", f.Relative())
		}
		logger.Debug("Command applied.", "file", f.Relative(), "in", len(f.Contents), "out", len(result))

		c := f.Clone()
		c.Contents = result
		if input.Extname != nil {
			rel := c.Relative()
			dot := strings.LastIndex(rel, ".")
			if dot > strings.LastIndex(rel, "/") {
				rel = rel[:dot]
			}
			c.SetRelative(rel + *input.Extname)
		}
		out = append(out, c)
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("exec", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Pipe every file through a shell command.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Exec(ctx, env, input.(*Input), files)
		},
	})
}
