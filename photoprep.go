// Package photoprep prepares camera photos for local display and upload.
//
// Photos arrive from three sources: the embedded camera (a capture.Session),
// the system camera app (a file written by another process) and the gallery
// (a picked stream). Each source ends in a JPEG file on disk that is upright
// and ready for display; PrepareUpload then bounds the file size.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/photoprep"
//		"github.com/menta2k/photoprep/pkg/capture"
//	)
//
//	func main() {
//		p, err := photoprep.New(nil, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		session := p.NewSession(capture.FileCamera{Source: "frame.jpg"})
//		shot, err := p.HandleCapture(context.Background(), session)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		res, err := p.PrepareUpload(shot.Path)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("ready for upload: %d bytes at quality %d", res.Size, res.Quality)
//	}
//
// The package consists of these components:
//
// 1. Orient (pkg/orient): rotation and mirroring for back/front captures
// 2. Compress (pkg/compress): JPEG quality search below a byte ceiling
// 3. Capture (pkg/capture): channel-based capture hand-off and lens switching
// 4. ImageIO, ExifMeta and Preview: decoding, EXIF inspection and display copies
package photoprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/menta2k/photoprep/internal/config"
	"github.com/menta2k/photoprep/internal/fsutil"
	"github.com/menta2k/photoprep/internal/logging"
	"github.com/menta2k/photoprep/pkg/capture"
	"github.com/menta2k/photoprep/pkg/compress"
	"github.com/menta2k/photoprep/pkg/exifmeta"
	"github.com/menta2k/photoprep/pkg/imageio"
	"github.com/menta2k/photoprep/pkg/orient"
	"github.com/menta2k/photoprep/pkg/preview"
)

// Version of the photoprep library
const Version = "1.0.0"

// Pipeline wires the photo preparation components
type Pipeline struct {
	cfg        *config.Config
	codec      *imageio.Codec
	namer      *fsutil.Namer
	corrector  *orient.Corrector
	compressor *compress.Compressor
	renderer   *preview.Renderer
	log        *zap.Logger
}

// New creates a Pipeline from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logging.OrNop(log)

	codec := imageio.New()
	compressor, err := compress.NewWithConfig(cfg.CompressorConfig(), codec, log.Named("compress"))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		codec:      codec,
		namer:      &fsutil.Namer{Format: cfg.Storage.FilenameFormat},
		corrector:  orient.NewCorrector(codec, cfg.Orient.JPEGQuality, log.Named("orient")),
		compressor: compressor,
		renderer:   preview.NewRenderer(codec, cfg.Preview.MaxDimension, cfg.Preview.Format, cfg.Preview.Quality),
		log:        log,
	}, nil
}

// SetNamer replaces the file namer, e.g. to pin the clock
func (p *Pipeline) SetNamer(namer *fsutil.Namer) {
	p.namer = namer
}

// NewSession creates a capture session whose shots are written to the
// capture path (<media>/<app>/<day>.jpg, falling back to the files dir)
func (p *Pipeline) NewSession(camera capture.Camera) *capture.Session {
	next := func() (string, error) {
		return p.namer.NewCapturePath(p.cfg.Storage.MediaDir, p.cfg.Storage.AppName, p.cfg.Storage.FilesDir)
	}
	return capture.NewSession(camera, next, p.log.Named("capture"))
}

// HandleCapture takes a photo with session and corrects its orientation in
// place according to the lens used
func (p *Pipeline) HandleCapture(ctx context.Context, session *capture.Session) (capture.Shot, error) {
	res := <-session.TakePhoto(ctx)
	if res.Err != nil {
		return capture.Shot{}, res.Err
	}

	if err := p.corrector.CorrectFile(res.Shot.Path, res.Shot.IsBackCamera()); err != nil {
		return res.Shot, fmt.Errorf("failed to correct %s: %w", res.Shot.Path, err)
	}
	return res.Shot, nil
}

// NewSystemCameraPath reserves a temp file for the system camera app to write
// its full-size capture into
func (p *Pipeline) NewSystemCameraPath() (string, error) {
	return p.namer.NewTempPath(p.cfg.Storage.PicturesDir)
}

// HandleSystemCamera finishes a capture written by the system camera app.
// The app records orientation in EXIF instead of rotating pixels.
func (p *Pipeline) HandleSystemCamera(path string) (exifmeta.Metadata, error) {
	return p.NormalizeOrientation(path)
}

// NormalizeOrientation reads the EXIF orientation of the photo at path and,
// when orient.apply_exif is set, rotates the pixels upright and drops the tag
func (p *Pipeline) NormalizeOrientation(path string) (exifmeta.Metadata, error) {
	meta, err := exifmeta.ReadFile(path)
	if err != nil {
		return meta, err
	}

	if p.cfg.Orient.ApplyEXIF && meta.NeedsRotation() {
		if err := p.corrector.NormalizeFile(path, meta.Orientation); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// ImportFromGallery copies a picked image stream into a new temp file and
// returns its path. The content must decode as an image and pass validation;
// nothing is left on disk otherwise.
func (p *Pipeline) ImportFromGallery(r io.Reader) (string, error) {
	path, err := p.namer.NewTempPath(p.cfg.Storage.PicturesDir)
	if err != nil {
		return "", err
	}

	var picked bytes.Buffer
	img, err := p.codec.LoadImageFromReader(io.TeeReader(r, &picked))
	if err == nil {
		err = p.codec.ValidateImage(img)
	}
	var n int64
	if err == nil {
		n, err = fsutil.ImportFile(&picked, path)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}

	p.log.Info("Image imported", zap.String("path", path), zap.String("size", fsutil.FormatFileSize(n)))
	return path, nil
}

// PrepareUpload bounds the encoded size of the photo at path, rewriting it in
// place. Sending the file is left to the caller.
func (p *Pipeline) PrepareUpload(path string) (compress.Result, error) {
	return p.compressor.CompressFile(path)
}

// Preview renders the display copy of src into dst
func (p *Pipeline) Preview(src, dst string) (image.Image, error) {
	return p.renderer.RenderFile(src, dst)
}

// CorrectFile re-orients the capture at path in place
func (p *Pipeline) CorrectFile(path string, isBackCamera bool) error {
	return p.corrector.CorrectFile(path, isBackCamera)
}

// Correct re-orients an in-memory image
func (p *Pipeline) Correct(img image.Image, isBackCamera bool) image.Image {
	return orient.Correct(img, isBackCamera)
}

// LoadImage loads an image from file
func (p *Pipeline) LoadImage(path string) (image.Image, error) {
	return p.codec.LoadImage(path)
}

// GetImageInfo returns basic information about an image
func (p *Pipeline) GetImageInfo(img image.Image) imageio.ImageInfo {
	return p.codec.GetImageInfo(img)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
