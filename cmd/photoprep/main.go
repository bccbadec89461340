package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/photoprep"
	"github.com/menta2k/photoprep/internal/config"
	"github.com/menta2k/photoprep/internal/fsutil"
	"github.com/menta2k/photoprep/internal/logging"
	"github.com/menta2k/photoprep/pkg/capture"
	"github.com/menta2k/photoprep/pkg/exifmeta"
)

const usage = `usage: %s <command> [flags]

commands:
  correct  -in photo.jpg [-front]       rotate (and mirror) a capture in place
  compress -in photo.jpg [-ceiling N]   shrink a photo below the upload ceiling
  capture  -from frame.jpg [-front]     run a capture through the camera pipeline
  import   -in picked.jpg               copy a gallery pick into the pictures dir
  inspect  -in photo.jpg                print dimensions and EXIF metadata
  preview  -in photo.jpg -out p.jpg     render a display-size copy

global flags (before the command):
  -config path   configuration file (yaml, json or toml)
  -log-level     debug|info|warn|error
`

func main() {
	var configPath, logLevel string
	flag.StringVar(&configPath, "config", "", "configuration file")
	flag.StringVar(&logLevel, "log-level", "", "override logging.level")
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0])) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.JSONFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Error("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		stop()
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var in, out, from string
	var front bool
	var ceiling int

	fs.StringVar(&in, "in", "", "input image path")
	fs.StringVar(&out, "out", "", "output path")
	fs.StringVar(&from, "from", "", "recorded sensor frame to capture from")
	fs.BoolVar(&front, "front", false, "image was taken with the front camera")
	fs.IntVar(&ceiling, "ceiling", 0, "byte ceiling (overrides compress.ceiling_bytes)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if ceiling > 0 {
		cfg.Compress.CeilingBytes = ceiling
	}

	p, err := photoprep.New(cfg, log)
	if err != nil {
		return err
	}

	switch cmd {
	case "correct":
		if in == "" {
			return fmt.Errorf("-in is required")
		}
		return p.CorrectFile(in, !front)

	case "compress":
		if in == "" {
			return fmt.Errorf("-in is required")
		}
		res, err := p.PrepareUpload(in)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s -> %s (quality %d, %d attempts)\n", in,
			fsutil.FormatFileSize(res.OriginalSize), fsutil.FormatFileSize(int64(res.Size)),
			res.Quality, res.Attempts)
		return nil

	case "capture":
		if from == "" {
			return fmt.Errorf("-from is required")
		}
		session := p.NewSession(capture.FileCamera{Source: from})
		if front {
			session.SwitchCamera()
		}
		shot, err := p.HandleCapture(ctx, session)
		if err != nil {
			return err
		}
		fmt.Println(shot.Path)
		return nil

	case "import":
		if in == "" {
			return fmt.Errorf("-in is required")
		}
		if !fsutil.IsImageFile(in) {
			return fmt.Errorf("%s is not a jpg, png or webp file", in)
		}
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()

		path, err := p.ImportFromGallery(f)
		if err != nil {
			return err
		}
		if _, err := p.NormalizeOrientation(path); err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "inspect":
		if in == "" {
			return fmt.Errorf("-in is required")
		}
		return inspect(p, in)

	case "preview":
		if in == "" {
			return fmt.Errorf("-in is required")
		}
		if out == "" {
			ext := strings.ToLower(cfg.Preview.Format)
			out = strings.TrimSuffix(in, filepath.Ext(in)) + "_preview." + ext
		}
		img, err := p.Preview(in, out)
		if err != nil {
			return err
		}
		log.Info("Preview written",
			zap.String("path", out),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()))
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func inspect(p *photoprep.Pipeline, path string) error {
	img, err := p.LoadImage(path)
	if err != nil {
		return err
	}
	meta, err := exifmeta.ReadFile(path)
	if err != nil {
		return err
	}
	size, err := fsutil.FileSize(path)
	if err != nil {
		return err
	}

	report := struct {
		Path string      `json:"path"`
		Size string      `json:"size"`
		Info interface{} `json:"info"`
		EXIF interface{} `json:"exif"`
	}{
		Path: path,
		Size: fsutil.FormatFileSize(size),
		Info: p.GetImageInfo(img),
		EXIF: meta,
	}

	js, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(js))
	return nil
}
