// Package compress shrinks photos below an upload size ceiling by lowering
// JPEG quality step by step.
package compress

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/photoprep/internal/fsutil"
	"github.com/menta2k/photoprep/internal/logging"
	"github.com/menta2k/photoprep/pkg/imageio"
)

const (
	// DefaultCeiling is the largest encoded size accepted for upload, in bytes
	DefaultCeiling = 1_000_000
	// DefaultInitialQuality is the first JPEG quality tried
	DefaultInitialQuality = 100
	// DefaultStep is how much the quality drops between attempts
	DefaultStep = 5
	// DefaultMinQuality is the lowest quality ever tried
	DefaultMinQuality = 5
)

// ErrCompressionUnachievable is returned when the image is still larger than
// the ceiling at the minimum quality
var ErrCompressionUnachievable = errors.New("size ceiling unreachable at minimum quality")

// Config holds the quality search parameters
type Config struct {
	CeilingBytes   int
	InitialQuality int
	Step           int
	MinQuality     int
}

// DefaultConfig returns the standard upload parameters
func DefaultConfig() Config {
	return Config{
		CeilingBytes:   DefaultCeiling,
		InitialQuality: DefaultInitialQuality,
		Step:           DefaultStep,
		MinQuality:     DefaultMinQuality,
	}
}

// Validate checks the search parameters
func (c Config) Validate() error {
	if c.CeilingBytes <= 0 {
		return fmt.Errorf("ceiling_bytes must be positive")
	}
	if c.InitialQuality < 1 || c.InitialQuality > 100 {
		return fmt.Errorf("initial_quality must be between 1 and 100")
	}
	if c.MinQuality < 1 || c.MinQuality > c.InitialQuality {
		return fmt.Errorf("min_quality must be between 1 and initial_quality")
	}
	if c.Step < 1 {
		return fmt.Errorf("step must be positive")
	}
	return nil
}

// Result describes a finished quality search
type Result struct {
	Quality      int   `json:"quality"`
	Size         int   `json:"size"`
	Attempts     int   `json:"attempts"`
	OriginalSize int64 `json:"original_size,omitempty"`
}

// Compressor runs the quality search
type Compressor struct {
	codec  *imageio.Codec
	config Config
	log    *zap.Logger
}

// New creates a Compressor with the default configuration
func New(log *zap.Logger) *Compressor {
	return &Compressor{
		codec:  imageio.New(),
		config: DefaultConfig(),
		log:    logging.OrNop(log),
	}
}

// NewWithConfig creates a Compressor with custom parameters
func NewWithConfig(config Config, codec *imageio.Codec, log *zap.Logger) (*Compressor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		codec = imageio.New()
	}
	return &Compressor{
		codec:  codec,
		config: config,
		log:    logging.OrNop(log),
	}, nil
}

// Encode searches for the highest quality, starting at InitialQuality and
// descending by Step, whose JPEG encoding fits in CeilingBytes. It returns the
// encoded bytes of the first fitting attempt.
func (c *Compressor) Encode(img image.Image) ([]byte, Result, error) {
	var res Result
	quality := c.config.InitialQuality

	for {
		data, err := imageio.EncodeJPEG(img, quality)
		if err != nil {
			return nil, res, err
		}
		res.Attempts++
		res.Quality = quality
		res.Size = len(data)

		c.log.Debug("Compression attempt",
			zap.Int("quality", quality),
			zap.Int("size", len(data)),
			zap.Int("ceiling", c.config.CeilingBytes))

		if len(data) <= c.config.CeilingBytes {
			return data, res, nil
		}

		next := quality - c.config.Step
		if next < c.config.MinQuality {
			if quality == c.config.MinQuality {
				return nil, res, fmt.Errorf("%w: %d bytes at quality %d, ceiling %d",
					ErrCompressionUnachievable, len(data), quality, c.config.CeilingBytes)
			}
			// the step overshoots the floor; try the floor itself once
			next = c.config.MinQuality
		}
		quality = next
	}
}

// Compress encodes img within the ceiling and writes it to target, replacing
// any previous content. On failure target is left untouched.
func (c *Compressor) Compress(img image.Image, target string) (Result, error) {
	data, res, err := c.Encode(img)
	if err != nil {
		return res, err
	}

	if err := fsutil.WriteFileAtomic(target, data); err != nil {
		return res, err
	}

	c.log.Info("Image compressed",
		zap.String("path", target),
		zap.Int("quality", res.Quality),
		zap.Int("size", res.Size),
		zap.Int("attempts", res.Attempts))
	return res, nil
}

// CompressFile decodes path and overwrites it with its bounded re-encoding.
// The output is always JPEG, so path must carry a JPEG extension.
func (c *Compressor) CompressFile(path string) (Result, error) {
	if !fsutil.IsJPEGFile(path) {
		return Result{}, fmt.Errorf("%w: %s is not a .jpg/.jpeg path", imageio.ErrUnsupportedFormat, path)
	}
	original, err := fsutil.FileSize(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	img, err := c.codec.LoadImage(path)
	if err != nil {
		return Result{}, err
	}

	res, err := c.Compress(img, path)
	res.OriginalSize = original
	return res, err
}
