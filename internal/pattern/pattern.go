// Package pattern compiles the file globs used by task sources and watch
// bindings and expands them against the file system.
//
// Supported syntax: `*` and `?` within one path segment, `[...]` classes,
// `{a,b}` alternatives and `**` for zero or more directories. A leading `!`
// turns a pattern into an exclusion.
package pattern

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rotisserie/eris"
)

const metaChars = "*?[{"

// Pattern is a compiled glob.
type Pattern struct {
	raw      string
	negated  bool
	absolute bool
	literal  bool
	parent   string
	matchers []glob.Glob
}

// Compile parses a single glob. Patterns are written with forward slashes.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}

	expr := raw
	if strings.HasPrefix(expr, "!") {
		p.negated = true
		expr = expr[1:]
	}
	expr = filepath.ToSlash(expr)
	expr = strings.TrimPrefix(expr, "./")
	if expr == "" {
		return nil, eris.Errorf("empty pattern %q", raw)
	}

	p.absolute = path.IsAbs(expr) || filepath.IsAbs(filepath.FromSlash(expr))
	p.literal = !strings.ContainsAny(expr, metaChars)
	p.parent = Parent(expr)

	for _, variant := range variants(expr) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, eris.Wrapf(err, "invalid pattern %q", raw)
		}
		p.matchers = append(p.matchers, g)
	}

	return p, nil
}

// String returns the pattern as written.
func (p *Pattern) String() string { return p.raw }

// Negated reports whether the pattern was prefixed with `!`.
func (p *Pattern) Negated() bool { return p.negated }

// Literal reports whether the pattern contains no glob syntax at all.
func (p *Pattern) Literal() bool { return p.literal }

// Absolute reports whether the pattern is rooted.
func (p *Pattern) Absolute() bool { return p.absolute }

// Parent is the static directory prefix of the pattern, in slash form.
func (p *Pattern) Parent() string { return p.parent }

// Match reports whether the slash separated path matches. Relative patterns
// are matched against paths relative to the working directory, absolute
// patterns against absolute paths.
func (p *Pattern) Match(name string) bool {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	for _, m := range p.matchers {
		if m.Match(name) {
			return true
		}
	}
	return false
}

// Parent returns the longest leading run of path segments that contain no
// glob syntax. For a literal path that is its directory.
func Parent(expr string) string {
	expr = strings.TrimPrefix(filepath.ToSlash(expr), "!")
	if !strings.ContainsAny(expr, metaChars) {
		dir := path.Dir(expr)
		return dir
	}

	segments := strings.Split(expr, "/")
	static := make([]string, 0, len(segments))
	for _, seg := range segments {
		if strings.ContainsAny(seg, metaChars) {
			break
		}
		static = append(static, seg)
	}

	if len(static) == 0 {
		return "."
	}
	joined := strings.Join(static, "/")
	if joined == "" {
		return "/"
	}
	return joined
}

// variants returns every spelling of expr in which each `**/` segment either
// stays or collapses, so that `a/**/b` also matches `a/b`.
func variants(expr string) []string {
	out := []string{expr}
	seen := map[string]bool{expr: true}

	for i := 0; i < len(out); i++ {
		cur := out[i]
		for idx := strings.Index(cur, "**/"); idx >= 0; {
			if idx == 0 || cur[idx-1] == '/' {
				collapsed := cur[:idx] + cur[idx+3:]
				if !seen[collapsed] {
					seen[collapsed] = true
					out = append(out, collapsed)
				}
			}
			next := strings.Index(cur[idx+3:], "**/")
			if next < 0 {
				break
			}
			idx += 3 + next
		}
	}

	return out
}
