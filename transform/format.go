package transform

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // detected so it can be rejected by name
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format is an image format name as registered with package image.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Supported reports whether f is accepted as a source format.
func (f Format) Supported() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	}
	return false
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// output is the encoding used for a source format: png stays png, everything
// else becomes jpeg (webp included).
func (f Format) output() Format {
	if f == FormatPNG {
		return FormatPNG
	}
	return FormatJPEG
}

// Detect reads only the image header. Unknown data yields ErrUnsupportedFormat;
// a recognized but unsupported format (gif, bmp, tiff) is returned with
// ErrUnsupportedFormat so callers can log what was seen.
func Detect(data []byte) (Format, image.Config, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return "", image.Config{}, ErrUnsupportedFormat
	}
	f := Format(name)
	if !f.Supported() {
		return f, cfg, ErrUnsupportedFormat
	}
	if err != nil {
		return f, image.Config{}, &CodecError{Op: "detect", Err: err}
	}
	return f, cfg, nil
}
