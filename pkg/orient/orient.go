// Package orient corrects the sensor-relative rotation of camera captures.
//
// Back-facing sensors deliver frames rotated 90 degrees counter-clockwise
// relative to the upright scene; front-facing sensors deliver them rotated the
// other way and mirrored. Correct undoes both.
package orient

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/menta2k/photoprep/internal/fsutil"
	"github.com/menta2k/photoprep/internal/logging"
	"github.com/menta2k/photoprep/pkg/imageio"
)

// ErrEmptyImage is returned for images with zero width or height
var ErrEmptyImage = errors.New("image has no pixels")

// DefaultQuality is the JPEG quality used when writing a corrected file back
const DefaultQuality = 100

// Correct returns a re-oriented copy of img. For the back camera the image is
// rotated 90 degrees clockwise. For the front camera it is rotated 90 degrees
// counter-clockwise and then mirrored about its vertical midline.
//
// For a WxH source pixel (x, y) the result pixel is (H-1-y, x) for the back
// camera and (H-1-y, W-1-x) for the front camera. img is never modified.
func Correct(img image.Image, isBackCamera bool) *image.NRGBA {
	if isBackCamera {
		return imaging.Rotate270(img)
	}
	return imaging.FlipH(imaging.Rotate90(img))
}

// ApplyEXIF normalises an image carrying an EXIF orientation tag (1..8) so it
// displays upright. Unknown values return img unchanged.
func ApplyEXIF(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Corrector applies Correct to image files in place
type Corrector struct {
	codec   *imageio.Codec
	quality int
	log     *zap.Logger
}

// NewCorrector creates a Corrector that re-encodes at the given JPEG quality.
// A quality outside 1..100 falls back to DefaultQuality.
func NewCorrector(codec *imageio.Codec, quality int, log *zap.Logger) *Corrector {
	if codec == nil {
		codec = imageio.New()
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Corrector{
		codec:   codec,
		quality: quality,
		log:     logging.OrNop(log),
	}
}

// CorrectFile decodes path, corrects its orientation and overwrites path with
// the result encoded as JPEG.
func (c *Corrector) CorrectFile(path string, isBackCamera bool) error {
	img, err := c.codec.LoadImage(path)
	if err != nil {
		return err
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%s: %w", path, ErrEmptyImage)
	}

	corrected := Correct(img, isBackCamera)
	return c.writeJPEG(path, corrected, isBackCamera)
}

// NormalizeFile applies the EXIF orientation tag to path and overwrites it.
// Files without a tag (or orientation 1) are left untouched.
func (c *Corrector) NormalizeFile(path string, orientation int) error {
	if orientation <= 1 || orientation > 8 {
		return nil
	}

	img, err := c.codec.LoadImage(path)
	if err != nil {
		return err
	}

	data, err := imageio.EncodeJPEG(ApplyEXIF(img, orientation), c.quality)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return err
	}

	c.log.Info("EXIF orientation applied",
		zap.String("path", path),
		zap.Int("orientation", orientation))
	return nil
}

func (c *Corrector) writeJPEG(path string, img image.Image, isBackCamera bool) error {
	data, err := imageio.EncodeJPEG(img, c.quality)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return err
	}

	b := img.Bounds()
	c.log.Info("Orientation corrected",
		zap.String("path", path),
		zap.Bool("back_camera", isBackCamera),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("size", len(data)))
	return nil
}
