// Package compress implements the `compress` step, which adds precompressed
// .br and .gz siblings to the stream.
package compress

import (
	"bytes"
	"context"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the compress step. Both encodings are on
// unless disabled.
type Input struct {
	Brotli  *bool `hcl:"brotli,optional"`
	Gzip    *bool `hcl:"gzip,optional"`
	MinSize int   `hcl:"min_size,optional"`
}

func enabled(b *bool) bool { return b == nil || *b }

// Brotli compresses data at the best compression level.
func Brotli(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gzip compresses data at the best compression level with an empty header,
// so that equal inputs give equal outputs.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compress keeps every file and appends its compressed siblings right after it.
func Compress(_ context.Context, _ *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	type encoder struct {
		ext string
		fn  func([]byte) ([]byte, error)
	}
	var encoders []encoder
	if enabled(input.Brotli) {
		encoders = append(encoders, encoder{".br", Brotli})
	}
	if enabled(input.Gzip) {
		encoders = append(encoders, encoder{".gz", Gzip})
	}

	out := make([]*asset.File, 0, len(files)*(1+len(encoders)))
	for _, f := range files {
		out = append(out, f)
		if len(f.Contents) < input.MinSize {
			continue
		}
		for _, enc := range encoders {
			data, err := enc.fn(f.Contents)
			if err != nil {
				return nil, eris.Wrapf(err, "compressing %s", f.Relative())
			}
			c := f.Clone()
			c.Contents = data
			c.SetRelative(f.Relative() + enc.ext)
			out = append(out, c)
		}
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("compress", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Add brotli and gzip siblings to every file.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Compress(ctx, env, input.(*Input), files)
		},
	})
}
