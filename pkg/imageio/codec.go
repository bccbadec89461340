// Package imageio decodes and encodes the raster images that move through the
// photo pipeline.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode is returned when a file or stream holds no decodable image
	ErrDecode = errors.New("failed to decode image")
	// ErrUnsupportedFormat is returned for formats the pipeline does not handle
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Codec loads and saves images
type Codec struct {
	config Config
}

// Config holds configuration for the codec
type Config struct {
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new Codec with default configuration
func New() *Codec {
	return &Codec{
		config: Config{
			DefaultQuality:   100,
			SupportedFormats: []string{"jpeg", "png", "webp"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new Codec with custom configuration
func NewWithConfig(config Config) *Codec {
	return &Codec{config: config}
}

// LoadImage loads an image from file
func (c *Codec) LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	img, err := c.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageFromReader loads an image from an io.Reader
func (c *Codec) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return c.decode(data)
}

func (c *Codec) decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// x/image/webp does not cover every encoder variant
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			img, format, err = wimg, "webp", nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if !c.isFormatSupported(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return img, nil
}

// SaveImage saves an image to a file in the given format. An empty format is
// derived from the file extension.
func (c *Codec) SaveImage(img image.Image, path, format string, quality int) error {
	if format == "" {
		format = path[strings.LastIndex(path, ".")+1:]
	}
	if quality <= 0 {
		quality = c.config.DefaultQuality
	}

	var enc func(io.Writer) error
	switch strings.ToLower(format) {
	case "webp":
		enc = func(w io.Writer) error {
			return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
		}
	case "png":
		enc = func(w io.Writer) error {
			return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
		}
	case "jpg", "jpeg":
		enc = func(w io.Writer) error {
			return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := enc(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return f.Close()
}

// EncodeJPEG encodes an image as JPEG at the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// GetImageInfo returns basic information about an image
func (c *Codec) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

func (c *Codec) isFormatSupported(format string) bool {
	for _, supported := range c.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
		if strings.EqualFold(supported, "jpg") && strings.EqualFold(format, "jpeg") {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (c *Codec) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < c.config.MinImageSize || bounds.Dy() < c.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), c.config.MinImageSize)
	}
	return nil
}
