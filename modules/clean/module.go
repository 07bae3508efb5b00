// Package clean implements the `clean` step, which deletes output paths.
package clean

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the clean step.
type Input struct {
	Paths []string `hcl:"paths"`
	// Force allows deleting the working directory itself or paths outside it.
	Force bool `hcl:"force,optional"`
}

// Clean removes every path recursively. Missing paths are not an error. The
// stream passes through unchanged.
func Clean(ctx context.Context, env *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	logger := ctxlog.FromContext(ctx)

	for _, p := range input.Paths {
		if strings.TrimSpace(p) == "" {
			return nil, eris.New("paths must not contain empty entries")
		}
		target := filepath.FromSlash(p)
		if !filepath.IsAbs(target) {
			target = filepath.Join(env.Cwd, target)
		}
		target = filepath.Clean(target)

		if !input.Force {
			rel, err := filepath.Rel(env.Cwd, target)
			if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return nil, eris.Errorf("refusing to delete %s: not inside the working directory %s (set force = true to override)", target, env.Cwd)
			}
		}

		if _, err := os.Lstat(target); os.IsNotExist(err) {
			logger.Debug("Nothing to clean.", "path", target)
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			return nil, eris.Wrapf(err, "deleting %s", target)
		}
		logger.Info("Deleted.", "path", target)
	}

	return files, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("clean", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Delete files and directories.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Clean(ctx, env, input.(*Input), files)
		},
	})
}
