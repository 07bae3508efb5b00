package testutil

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// NoOpModule registers a single "noop" step. It's useful for tests that
// need a valid task file whose steps do nothing.
type NoOpModule struct{}

// Register registers the "noop" step, which takes no inputs and passes the
// stream through.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterStep("noop", &registry.RegisteredStep{
		Fn: func(_ context.Context, _ *registry.Env, _ any, files []*asset.File) ([]*asset.File, error) {
			return files, nil
		},
	})
}
