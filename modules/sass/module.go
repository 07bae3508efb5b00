// Package sass implements the `sass` step. Compilation is delegated to an
// external Sass compiler that reads SCSS on stdin and writes CSS to stdout.
package sass

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/shell"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sass step.
type Input struct {
	// Compiler is the command line prefix, "sass" by default.
	Compiler     string   `hcl:"compiler,optional"`
	OutputStyle  string   `hcl:"output_style,optional"`
	IncludePaths []string `hcl:"include_paths,optional"`
	Args         []string `hcl:"args,optional"`
}

// Command builds the compiler invocation for a file living in dir.
func Command(input *Input, dir string, cwd string) string {
	compiler := input.Compiler
	if compiler == "" {
		compiler = "sass"
	}
	style := input.OutputStyle
	if style == "" {
		style = "expanded"
	}

	parts := []string{compiler, "--stdin", shell.Quote("--style=" + style), shell.Quote("--load-path=" + dir)}
	for _, p := range input.IncludePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, filepath.FromSlash(p))
		}
		parts = append(parts, shell.Quote("--load-path="+p))
	}
	for _, a := range input.Args {
		parts = append(parts, shell.Quote(a))
	}
	return strings.Join(parts, " ")
}

// Compile runs every non-partial file through the compiler. Partials (names
// starting with an underscore) leave the stream; outputs get a .css extension.
func Compile(ctx context.Context, env *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	switch input.OutputStyle {
	case "", "expanded", "compressed":
	default:
		return nil, eris.Errorf("output_style must be \"expanded\" or \"compressed\", got %q", input.OutputStyle)
	}

	logger := ctxlog.FromContext(ctx)

	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "_") {
			logger.Debug("Skipping partial.", "file", f.Relative())
			continue
		}

		cmd := shell.Command{
			Script: Command(input, filepath.Dir(f.Path), env.Cwd),
			Dir:    env.Cwd,
			Env: map[string]string{
				"ASSETGRID_FILE": f.Path,
				"ASSETGRID_TASK": env.Task,
			},
		}
		css, err := shell.Pipe(ctx, cmd, f.Contents)
		if err != nil {
			return nil, eris.Wrapf(err, "compiling %s", f.Relative())
		}

		c := f.Clone()
		c.Contents = css
		rel := f.Relative()
		c.SetRelative(strings.TrimSuffix(rel, filepath.Ext(rel)) + ".css")
		out = append(out, c)
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("sass", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Compile SCSS through the external sass compiler.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Compile(ctx, env, input.(*Input), files)
		},
	})
}
