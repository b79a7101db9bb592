package transform

// Fit selects how the source is mapped onto the requested box.
type Fit string

// FitInside keeps the aspect ratio and keeps both sides within the box.
const FitInside Fit = "inside"

// Options is the full set of resize parameters. A zero Width or Height means
// "derive from the other side".
type Options struct {
	Fit              Fit
	AllowEnlargement bool
	Width            uint
	Height           uint
}

// Inside returns the options used by the resize pipeline: fit inside, never
// enlarge.
func Inside(width, height int) Options {
	o := Options{Fit: FitInside}
	if width > 0 {
		o.Width = uint(width)
	}
	if height > 0 {
		o.Height = uint(height)
	}
	return o
}

// fitBox computes output dimensions for a srcW x srcH source. The side that
// binds is set exactly to the requested value; the other is rounded to the
// nearest pixel (min 1). Without enlargement, a source that already fits is
// returned unchanged.
func fitBox(srcW, srcH int, width, height uint, allowEnlargement bool) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	tw, th := int64(width), int64(height)
	sw, sh := int64(srcW), int64(srcH)

	var w, h int64
	switch {
	case tw > 0 && th > 0:
		// tw/sw <= th/sh  <=>  width binds
		if tw*sh <= th*sw {
			w, h = tw, roundDiv(sh*tw, sw)
		} else {
			w, h = roundDiv(sw*th, sh), th
		}
	case tw > 0:
		w, h = tw, roundDiv(sh*tw, sw)
	case th > 0:
		w, h = roundDiv(sw*th, sh), th
	default:
		return srcW, srcH
	}

	if !allowEnlargement && (w > sw || h > sh) {
		return srcW, srcH
	}
	return int(max(w, 1)), int(max(h, 1))
}

func roundDiv(n, d int64) int64 {
	return (n + d/2) / d
}
