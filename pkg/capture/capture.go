// Package capture hands still captures from a camera to the photo pipeline.
//
// Camera hardware is provided by the host. A Session owns the lens selection
// and turns each TakePhoto call into a single Result delivered on a channel.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/photoprep/internal/logging"
)

// ErrNoCamera is returned when a Session has no camera bound
var ErrNoCamera = errors.New("no camera bound")

// Facing identifies the lens a photo was taken with
type Facing int

const (
	Back Facing = iota
	Front
)

func (f Facing) String() string {
	if f == Front {
		return "front"
	}
	return "back"
}

// IsBackCamera reports whether f is the back lens
func (f Facing) IsBackCamera() bool {
	return f == Back
}

// Toggle returns the other lens
func (f Facing) Toggle() Facing {
	if f == Back {
		return Front
	}
	return Back
}

// Camera takes a still picture with the given lens and writes it to dst
type Camera interface {
	TakePicture(ctx context.Context, facing Facing, dst string) error
}

// PathFunc returns the path the next capture is written to
type PathFunc func() (string, error)

// Shot is a capture written to disk
type Shot struct {
	Path   string `json:"path"`
	Facing Facing `json:"facing"`
}

// IsBackCamera reports whether the shot came from the back lens
func (s Shot) IsBackCamera() bool {
	return s.Facing.IsBackCamera()
}

// Result is delivered once per TakePhoto call
type Result struct {
	Shot Shot
	Err  error
}

// Session tracks the selected lens and runs captures
type Session struct {
	mu     sync.Mutex
	camera Camera
	facing Facing
	nextFn PathFunc
	log    *zap.Logger
}

// NewSession creates a Session starting on the back lens
func NewSession(camera Camera, next PathFunc, log *zap.Logger) *Session {
	return &Session{
		camera: camera,
		facing: Back,
		nextFn: next,
		log:    logging.OrNop(log),
	}
}

// Facing returns the selected lens
func (s *Session) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// SwitchCamera toggles between the back and front lens and returns the new one
func (s *Session) SwitchCamera() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facing = s.facing.Toggle()
	s.log.Debug("Camera switched", zap.Stringer("facing", s.facing))
	return s.facing
}

// TakePhoto captures with the selected lens. Exactly one Result is sent on the
// returned channel, which is then closed. Cancelling ctx before the camera
// finishes yields ctx.Err() right away; the camera keeps running with the
// same ctx and is responsible for discarding the file it was writing.
func (s *Session) TakePhoto(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	facing := s.Facing()

	go func() {
		defer close(out)
		out <- s.take(ctx, facing)
	}()
	return out
}

func (s *Session) take(ctx context.Context, facing Facing) Result {
	if s.camera == nil {
		return Result{Err: ErrNoCamera}
	}
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	path, err := s.nextFn()
	if err != nil {
		return Result{Err: fmt.Errorf("failed to create capture file: %w", err)}
	}

	done := make(chan error, 1)
	go func() { done <- s.camera.TakePicture(ctx, facing, path) }()

	select {
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			s.log.Warn("Capture failed", zap.Stringer("facing", facing), zap.Error(err))
			return Result{Err: fmt.Errorf("capture failed: %w", err)}
		}
	}

	s.log.Info("Image captured", zap.String("path", path), zap.Stringer("facing", facing))
	return Result{Shot: Shot{Path: path, Facing: facing}}
}

// FileCamera is a Camera that "captures" by copying an existing file, for
// feeding recorded sensor output through the pipeline
type FileCamera struct {
	Source string
}

// TakePicture copies the source file to dst. If ctx is done by the time the
// copy finishes, dst is removed and ctx.Err() returned.
func (c FileCamera) TakePicture(ctx context.Context, _ Facing, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(c.Source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
