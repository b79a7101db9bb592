// Package transform decodes, proportionally resizes and re-encodes images.
// It is pure Go (no cgo) and performs no I/O.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	defaultJPEGQuality = 80
	// DefaultMaxSourcePixels bounds decode memory (~400 MiB of RGBA).
	DefaultMaxSourcePixels = 100_000_000
)

// Config tunes the engine. The zero value is usable.
type Config struct {
	JPEGQuality     int                  // 1..100; 0 => 80
	Scaler          string               // "catmullrom" (default), "bilinear", "approxbilinear", "nearest"
	PNGCompression  png.CompressionLevel // 0 => png.DefaultCompression
	MaxSourcePixels int64                // 0 => DefaultMaxSourcePixels; <0 disables
}

// Result is an encoded rendition.
type Result struct {
	Data        []byte
	ContentType string
	Format      Format // output format
	Source      Format // detected input format
	Width       int
	Height      int
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	quality   int
	scaler    draw.Interpolator
	png       png.Encoder
	maxPixels int64
}

func New(cfg Config) (*Engine, error) {
	e := &Engine{
		quality:   cfg.JPEGQuality,
		png:       png.Encoder{CompressionLevel: cfg.PNGCompression},
		maxPixels: cfg.MaxSourcePixels,
	}
	if e.quality == 0 {
		e.quality = defaultJPEGQuality
	}
	if e.quality < 1 || e.quality > 100 {
		return nil, fmt.Errorf("transform: jpeg quality %d out of range 1..100", cfg.JPEGQuality)
	}
	if e.maxPixels == 0 {
		e.maxPixels = DefaultMaxSourcePixels
	}
	s, err := scalerByName(cfg.Scaler)
	if err != nil {
		return nil, err
	}
	e.scaler = s
	return e, nil
}

func scalerByName(name string) (draw.Interpolator, error) {
	switch name {
	case "", "catmullrom":
		return draw.CatmullRom, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("transform: unknown scaler %q", name)
	}
}

// Transform checks the source format, resizes per opts and encodes the
// result. The format check runs on the original bytes before any decode.
// Errors: ErrUnsupportedFormat, *CodecError, or ctx.Err().
func (e *Engine) Transform(ctx context.Context, data []byte, opts Options) (Result, error) {
	if opts.Fit != "" && opts.Fit != FitInside {
		return Result{}, fmt.Errorf("transform: unsupported fit %q", opts.Fit)
	}

	src, cfg, err := Detect(data)
	if err != nil {
		return Result{}, err
	}
	if e.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > e.maxPixels {
		return Result{}, &CodecError{
			Op:  "limit",
			Err: fmt.Errorf("source %dx%d exceeds %d pixels", cfg.Width, cfg.Height, e.maxPixels),
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, &CodecError{Op: "decode", Err: err}
	}

	b := img.Bounds()
	w, h := fitBox(b.Dx(), b.Dy(), opts.Width, opts.Height, opts.AllowEnlargement)
	out := img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		e.scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		out = dst
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	format := src.output()
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = e.png.Encode(&buf, out)
	default:
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: e.quality})
	}
	if err != nil {
		return Result{}, &CodecError{Op: "encode", Err: err}
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: format.ContentType(),
		Format:      format,
		Source:      src,
		Width:       w,
		Height:      h,
	}, nil
}

// IsClientError reports whether err is the caller's fault (bad source format).
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}
