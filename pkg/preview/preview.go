// Package preview renders the bounded-size copy shown after a photo is taken
// or picked.
package preview

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/photoprep/pkg/imageio"
)

// DefaultMaxDimension bounds the longer side of a preview, in pixels
const DefaultMaxDimension = 1024

// Renderer scales images down for display
type Renderer struct {
	codec        *imageio.Codec
	maxDimension int
	format       string
	quality      int
}

// NewRenderer creates a Renderer writing previews in format ("jpg", "png" or
// "webp") at the given quality
func NewRenderer(codec *imageio.Codec, maxDimension int, format string, quality int) *Renderer {
	if codec == nil {
		codec = imageio.New()
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if format == "" {
		format = "jpg"
	}
	return &Renderer{
		codec:        codec,
		maxDimension: maxDimension,
		format:       format,
		quality:      quality,
	}
}

// Render returns a copy of img whose longer side is at most the configured
// maximum. Smaller images are copied unscaled.
func (r *Renderer) Render(img image.Image) image.Image {
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), r.maxDimension)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// RenderFile loads src, renders its preview and saves it to dst
func (r *Renderer) RenderFile(src, dst string) (image.Image, error) {
	img, err := r.codec.LoadImage(src)
	if err != nil {
		return nil, err
	}

	out := r.Render(img)
	if err := r.codec.SaveImage(out, dst, r.format, r.quality); err != nil {
		return nil, fmt.Errorf("failed to save preview: %w", err)
	}
	return out, nil
}

// fitWithin scales w x h down, preserving aspect ratio, so neither side
// exceeds limit
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
