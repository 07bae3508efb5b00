// Package rename implements the `rename` step.
package rename

import (
	"context"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the rename step. To replaces the whole
// relative path; the other fields edit one part of it.
type Input struct {
	To       string  `hcl:"to,optional"`
	Dirname  *string `hcl:"dirname,optional"`
	Prefix   string  `hcl:"prefix,optional"`
	Basename *string `hcl:"basename,optional"`
	Suffix   string  `hcl:"suffix,optional"`
	Extname  *string `hcl:"extname,optional"`
}

func (in *Input) partial() bool {
	return in.Dirname != nil || in.Prefix != "" || in.Basename != nil || in.Suffix != "" || in.Extname != nil
}

// Rename computes the new relative path of one file.
func Rename(rel string, input *Input) string {
	if input.To != "" {
		return input.To
	}

	dir, file := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	if input.Dirname != nil {
		dir = *input.Dirname
	}
	if input.Basename != nil {
		base = *input.Basename
	}
	if input.Extname != nil {
		ext = *input.Extname
	}

	name := input.Prefix + base + input.Suffix + ext
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}

// RenameFiles applies the rename to every file of the stream.
func RenameFiles(_ context.Context, _ *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	if input.To != "" && input.partial() {
		return nil, eris.New("to cannot be combined with dirname, prefix, basename, suffix or extname")
	}
	if input.To != "" && len(files) > 1 {
		return nil, eris.Errorf("to renames a single file, the stream has %d", len(files))
	}

	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		renamed := f.Clone()
		renamed.SetRelative(Rename(f.Relative(), input))
		out = append(out, renamed)
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("rename", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Rename files in the stream.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return RenameFiles(ctx, env, input.(*Input), files)
		},
	})
}
