package print

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the listing. Defaults to stdout.
	Out io.Writer
}

// Input defines the arguments for the print step.
type Input struct {
	Title string `hcl:"title,optional"`
}

// Print lists every file of the stream and passes it on unchanged.
func Print(ctx context.Context, out io.Writer, env *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	ctxlog.FromContext(ctx).Info("Printing stream", "task", env.Task, "files", len(files))

	title := input.Title
	if title == "" {
		title = env.Task
	}
	fmt.Fprintf(out, "  %s:\n", title)

	if len(files) == 0 {
		fmt.Fprintln(out, "      (empty)")
		return files, nil
	}
	for _, f := range files {
		fmt.Fprintf(out, "      %s (%d bytes)\n", f.Relative(), len(f.Contents))
	}
	return files, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.RegisterStep("print", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Print every file of the stream.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Print(ctx, out, env, input.(*Input), files)
		},
	})
}
