// Package minify implements the `minify` step for CSS, JavaScript, SVG, HTML,
// JSON and XML files.
package minify

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var mediaTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".svg":  "image/svg+xml",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".xml":  "text/xml",
}

// New returns a minifier with every supported media type registered.
func New() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("application/json", json.Minify)
	m.AddFunc("text/xml", xml.Minify)
	return m
}

// MediaType returns the media type minify handles for an extension.
func MediaType(ext string) (string, bool) {
	t, ok := mediaTypes[ext]
	return t, ok
}

// Minify minifies every file with a known extension; other files pass through.
func Minify(ctx context.Context, _ *registry.Env, _ any, files []*asset.File) ([]*asset.File, error) {
	logger := ctxlog.FromContext(ctx)
	m := New()

	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		mediaType, ok := MediaType(f.Ext())
		if !ok {
			out = append(out, f)
			continue
		}

		minified, err := m.Bytes(mediaType, f.Contents)
		if err != nil {
			return nil, eris.Wrapf(err, "minifying %s", f.Relative())
		}
		logger.Debug("File minified.", "file", f.Relative(), "before", len(f.Contents), "after", len(minified))

		c := f.Clone()
		c.Contents = minified
		out = append(out, c)
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("minify", &registry.RegisteredStep{
		Description: "Minify CSS, JS, SVG, HTML, JSON and XML files.",
		Fn:          Minify,
	})
}
