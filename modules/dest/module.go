// Package dest implements the `dest` step, which writes the stream to disk.
package dest

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the dest step.
type Input struct {
	Dir string `hcl:"dir"`
}

// Dest writes every file below input.Dir and continues with the written files.
func Dest(ctx context.Context, _ *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	if input.Dir == "" {
		return nil, eris.New("dir must not be empty")
	}
	return asset.Dest(ctx, input.Dir, files)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("dest", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Write files to a directory, preserving paths relative to their base.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Dest(ctx, env, input.(*Input), files)
		},
	})
}
