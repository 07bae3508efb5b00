package pattern

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Match is a file selected by a pattern list.
type Match struct {
	// Path is the absolute path of the file.
	Path string
	// Base is the absolute glob parent of the pattern that selected it.
	Base string
}

// Set is an ordered list of include and exclude patterns.
type Set struct {
	include []*Pattern
	exclude []*Pattern
}

// CompileSet compiles every pattern in order.
func CompileSet(raw []string) (*Set, error) {
	s := &Set{}
	for _, r := range raw {
		p, err := Compile(r)
		if err != nil {
			return nil, err
		}
		if p.Negated() {
			s.exclude = append(s.exclude, p)
		} else {
			s.include = append(s.include, p)
		}
	}
	return s, nil
}

// Match reports whether name matches at least one include and no exclude.
// name is relative to the working directory, or absolute.
func (s *Set) Match(name string) bool {
	return s.MatchAny(name) && !s.Excluded(name)
}

// MatchAny reports whether name matches an include pattern.
func (s *Set) MatchAny(name string) bool {
	for _, p := range s.include {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Excluded reports whether name matches an exclude pattern.
func (s *Set) Excluded(name string) bool {
	for _, p := range s.exclude {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Expand walks the file system below cwd and returns every regular file
// selected by the set. Include patterns contribute in declaration order, each
// in lexical path order; a file already selected keeps its first position.
// A pattern whose parent does not exist selects nothing.
func (s *Set) Expand(cwd string) ([]Match, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, eris.Wrap(err, "resolving working directory")
	}

	var out []Match
	seen := make(map[string]struct{})

	add := func(abs, base string) {
		if _, ok := seen[abs]; ok {
			return
		}
		if s.Excluded(displayName(cwd, abs)) || s.Excluded(filepath.ToSlash(abs)) {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, Match{Path: abs, Base: base})
	}

	for _, p := range s.include {
		root := resolve(cwd, p.Parent())

		if p.Literal() {
			abs := resolve(cwd, p.raw)
			info, err := os.Stat(abs)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, eris.Wrapf(err, "stat %s", abs)
			}
			if info.Mode().IsRegular() {
				add(abs, root)
			}
			continue
		}

		if _, err := os.Stat(root); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, eris.Wrapf(err, "stat %s", root)
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			name := displayName(cwd, path)
			if p.Absolute() {
				name = filepath.ToSlash(path)
			}
			if p.Match(name) {
				add(path, root)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "expanding %q", p.String())
		}
	}

	return out, nil
}

// Expand compiles patterns and expands them below cwd.
func Expand(cwd string, patterns []string) ([]Match, error) {
	s, err := CompileSet(patterns)
	if err != nil {
		return nil, err
	}
	return s.Expand(cwd)
}

// Rel returns name relative to cwd in slash form, falling back to the
// absolute slash path when no relative path exists.
func Rel(cwd, name string) string {
	return displayName(cwd, name)
}

func displayName(cwd, abs string) string {
	rel, err := filepath.Rel(cwd, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func resolve(cwd, slashPath string) string {
	p := filepath.FromSlash(slashPath)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}
