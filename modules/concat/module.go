// Package concat implements the `concat` step, which joins the stream into
// one file.
package concat

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the concat step.
type Input struct {
	File      string  `hcl:"file"`
	Separator *string `hcl:"separator,optional"`
}

// Concat joins all files in stream order. The result lives next to the first
// file's base; an empty stream stays empty.
func Concat(ctx context.Context, _ *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	if input.File == "" {
		return nil, eris.New("file must not be empty")
	}
	if len(files) == 0 {
		ctxlog.FromContext(ctx).Debug("Nothing to concatenate.", "file", input.File)
		return nil, nil
	}

	sep := []byte("\n")
	if input.Separator != nil {
		sep = []byte(*input.Separator)
	}

	parts := make([][]byte, 0, len(files))
	first := files[0]
	joined := &asset.File{
		Cwd:     first.Cwd,
		Base:    first.Base,
		Mode:    first.Mode,
		ModTime: first.ModTime,
	}
	for _, f := range files {
		parts = append(parts, f.Contents)
		if f.ModTime.After(joined.ModTime) {
			joined.ModTime = f.ModTime
		}
	}
	joined.Contents = bytes.Join(parts, sep)
	joined.SetRelative(filepath.ToSlash(input.File))

	return []*asset.File{joined}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("concat", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Join the stream into a single file.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Concat(ctx, env, input.(*Input), files)
		},
	})
}
