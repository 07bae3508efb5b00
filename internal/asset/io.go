package asset

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pattern"
)

// Src expands the source globs below cwd and reads every match into memory.
// An explicit base overrides the glob parent of each match.
func Src(ctx context.Context, cwd string, globs []string, base string) ([]*File, error) {
	logger := ctxlog.FromContext(ctx)

	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, eris.Wrap(err, "resolving working directory")
	}

	matches, err := pattern.Expand(cwd, globs)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		logger.Debug("Source globs matched no files.", "globs", globs)
	}

	if base != "" && !filepath.IsAbs(base) {
		base = filepath.Join(cwd, filepath.FromSlash(base))
	}

	files := make([]*File, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", m.Path)
		}
		contents, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "reading %s", m.Path)
		}

		f := &File{
			Cwd:      cwd,
			Base:     m.Base,
			Path:     m.Path,
			Contents: contents,
			Mode:     info.Mode().Perm(),
			ModTime:  info.ModTime(),
		}
		if base != "" {
			f.Base = base
		}
		files = append(files, f)
	}

	logger.Debug("Source files read.", "count", len(files))
	return files, nil
}

// Dest writes each file to dir, preserving its path relative to its base, and
// returns the stream rebased onto dir. A relative dir is resolved against the
// file's working directory.
func Dest(ctx context.Context, dir string, files []*File) ([]*File, error) {
	logger := ctxlog.FromContext(ctx)

	out := make([]*File, 0, len(files))
	for _, f := range files {
		target := dir
		if !filepath.IsAbs(target) {
			target = filepath.Join(f.Cwd, filepath.FromSlash(dir))
		}

		written := f.Clone()
		written.Base = target
		written.SetRelative(f.Relative())

		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := os.MkdirAll(filepath.Dir(written.Path), 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating directory for %s", written.Path)
		}
		if err := os.WriteFile(written.Path, written.Contents, mode); err != nil {
			return nil, eris.Wrapf(err, "writing %s", written.Path)
		}
		logger.Debug("File written.", "path", written.Path, "bytes", len(written.Contents))

		out = append(out, written)
	}
	return out, nil
}
