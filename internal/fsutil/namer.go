package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultStampFormat is dd-MMM-yyyy, e.g. 17-Oct-2026
const DefaultStampFormat = "02-Jan-2006"

// JPEGSuffix is appended to every generated photo path
const JPEGSuffix = ".jpg"

const maxCreateAttempts = 16

// Namer derives photo file names from the current day. The stamp is computed
// on every call from Now, so a long-running process never reuses a stale day.
type Namer struct {
	Format string
	Now    func() time.Time
}

// NewNamer creates a Namer with the default format and the wall clock
func NewNamer() *Namer {
	return &Namer{Format: DefaultStampFormat, Now: time.Now}
}

// Stem returns the timestamp stem for a file created right now
func (n *Namer) Stem() string {
	format := n.Format
	if format == "" {
		format = DefaultStampFormat
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return now().Format(format)
}

// NewTempPath creates a new empty, uniquely named file under baseDir and
// returns its path. Several files created on the same day share the stem and
// differ in a random suffix.
func (n *Namer) NewTempPath(baseDir string) (string, error) {
	if err := EnsureDir(baseDir); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", baseDir, err)
	}

	stem := n.Stem()
	for i := 0; i < maxCreateAttempts; i++ {
		path := filepath.Join(baseDir, stem+uuid.NewString()[:8]+JPEGSuffix)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create temp file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("failed to create unique file in %s after %d attempts", baseDir, maxCreateAttempts)
}

// NewCapturePath returns the path a camera capture is written to:
// <mediaDir>/<appName>/<stem>.jpg when that directory can be created,
// otherwise <fallbackDir>/<stem>.jpg. Captures on the same day share a name
// and overwrite each other.
func (n *Namer) NewCapturePath(mediaDir, appName, fallbackDir string) (string, error) {
	name := n.Stem() + JPEGSuffix

	if mediaDir != "" {
		dir := filepath.Join(mediaDir, appName)
		if err := EnsureDir(dir); err == nil {
			return filepath.Join(dir, name), nil
		}
	}

	if fallbackDir == "" {
		return "", errors.New("no media directory and no fallback directory")
	}
	if err := EnsureDir(fallbackDir); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", fallbackDir, err)
	}
	return filepath.Join(fallbackDir, name), nil
}
