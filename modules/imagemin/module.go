// Package imagemin implements the `imagemin` step. PNG, JPEG and GIF images
// are re-encoded, SVG images are minified, and the smaller of the original
// and the result is kept.
package imagemin

import (
	"bytes"
	"context"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/modules/minify"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the imagemin step.
type Input struct {
	// JPEGQuality enables lossy JPEG re-encoding at the given quality (1-100).
	// Zero leaves JPEG files untouched.
	JPEGQuality int  `hcl:"jpeg_quality,optional"`
	Progress    bool `hcl:"progress,optional"`
}

// Optimize returns the recompressed image, or the input when no smaller
// encoding was found. Unknown extensions are returned unchanged.
func Optimize(ext string, data []byte, input *Input) ([]byte, error) {
	var out []byte
	var err error

	switch ext {
	case ".png":
		out, err = optimizePNG(data)
	case ".jpg", ".jpeg":
		if input.JPEGQuality == 0 {
			return data, nil
		}
		out, err = optimizeJPEG(data, input.JPEGQuality)
	case ".gif":
		out, err = optimizeGIF(data)
	case ".svg":
		mediaType, _ := minify.MediaType(ext)
		out, err = minify.New().Bytes(mediaType, data)
	default:
		return data, nil
	}
	if err != nil {
		return nil, err
	}

	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

func optimizePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optimizeJPEG(data []byte, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, eris.Errorf("jpeg_quality must be between 1 and 100, got %d", quality)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optimizeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newBar(w io.Writer, total int, task string) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(task+": optimizing images"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
}

// Imagemin optimizes every image of the stream.
func Imagemin(ctx context.Context, env *registry.Env, input *Input, files []*asset.File) ([]*asset.File, error) {
	logger := ctxlog.FromContext(ctx)

	var progress io.Writer
	if input.Progress {
		progress = env.Progress
	}
	bar := newBar(progress, len(files), env.Task)

	var before, after int
	out := make([]*asset.File, 0, len(files))
	for _, f := range files {
		optimized, err := Optimize(f.Ext(), f.Contents, input)
		if err != nil {
			return nil, eris.Wrapf(err, "optimizing %s", f.Relative())
		}
		before += len(f.Contents)
		after += len(optimized)

		c := f.Clone()
		c.Contents = optimized
		out = append(out, c)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	logger.Info("Images optimized.", "count", len(files), "saved_bytes", before-after)
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep("imagemin", &registry.RegisteredStep{
		NewInput:    func() any { return new(Input) },
		Description: "Recompress PNG, JPEG and GIF images and minify SVG.",
		Fn: func(ctx context.Context, env *registry.Env, input any, files []*asset.File) ([]*asset.File, error) {
			return Imagemin(ctx, env, input.(*Input), files)
		},
	})
}
