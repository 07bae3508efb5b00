// Package sassglob implements the `sass_glob` step, which expands glob
// imports in SCSS sources into one import per matching file.
package sassglob

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pattern"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sass_glob step.
type Input struct {
	// Ignore lists globs, relative to the importing file, left out of expansions.
	Ignore []string `hcl:"ignore,optional"`
}

var importRe = regexp.MustCompile(`(?m)^([ \t]*)@import\s+["']([^"']*[*?{][^"']*)["']\s*;`)

var styleExt = map[string]bool{".scss": true, ".sass": true, ".css": true}

// Expand rewrites the glob imports of one file. dir is the directory of the
// importing file, self its absolute path.
func Expand(dir, self string, contents []byte, ignore []string) ([]byte, error) {
	var firstErr error

	out := importRe.ReplaceAllFunc(contents, func(stmt []byte) []byte {
		groups := importRe.FindSubmatch(stmt)
		indent, glob := string(groups[1]), string(groups[2])

		patterns := []string{glob}
		for _, ig := range ignore {
			patterns = append(patterns, "!"+ig)
		}
		matches, err := pattern.Expand(dir, patterns)
		if err != nil {
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "expanding import %q", glob)
			}
			return stmt
		}

		var b strings.Builder
		for _, m := range matches {
			if m.Path == self || !styleExt[strings.ToLower(filepath.Ext(m.Path))] {
				continue
			}
			fmt.Fprintf(&b, "%s@import %q;\n", indent, pattern.Rel(dir, m.Path))
		}
		return []byte(strings.TrimSuffix(b.String(), "\n"))
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// SassGlob expands glob imports in every file of the stream.
func SassGlob(ctx context.Context, _ *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	logger := ctxlog.FromContext(ctx)

	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		expanded, err := Expand(filepath.Dir(f.Path), f.Path, f.Contents, input.Ignore)
		if err != nil {
			return nil, eris.Wrapf(err, "in %s", f.Relative())
		}
		c := f.Clone()
		c.Contents = expanded
		out = append(out, c)
		logger.Debug("Glob imports expanded.", "file", f.Relative())
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("sass_glob", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Expand glob @import statements in SCSS sources.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return SassGlob(ctx, env, input.(*Input), files)
		},
	})
}
