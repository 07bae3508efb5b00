// Package reload implements the `reload` step, which pushes the stream to
// the browsers connected to the dev server.
package reload

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Reload streams the current files to the dev server, which injects
// stylesheets or reloads the page. An empty stream triggers a full reload.
func Reload(ctx context.Context, env *registry.Env, _ any, files []*asset.File) ([]*asset.File, error) {
	if env.Reloader == nil {
		return files, nil
	}
	if len(files) == 0 {
		env.Reloader.Reload(ctx)
		return files, nil
	}
	env.Reloader.Stream(ctx, asset.Paths(files))
	return files, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("reload", &registry.RegisteredStep{
		Description: "Reload or inject the stream into connected browsers.",
		Fn:          Reload,
	})
}
