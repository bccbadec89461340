// Package exifmeta reads the EXIF fields the photo pipeline cares about.
package exifmeta

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata holds the EXIF fields of a photo. A photo without EXIF reports
// Orientation 1 and HasEXIF false.
type Metadata struct {
	HasEXIF     bool      `json:"has_exif"`
	Orientation int       `json:"orientation"`
	Taken       time.Time `json:"taken,omitempty"`
	CameraMake  string    `json:"camera_make,omitempty"`
	CameraModel string    `json:"camera_model,omitempty"`
}

// NeedsRotation reports whether the orientation tag asks for a transform
func (m Metadata) NeedsRotation() bool {
	return m.Orientation > 1 && m.Orientation <= 8
}

// Read parses EXIF data from r. Missing or unparsable EXIF is not an error.
func Read(r io.Reader) (Metadata, error) {
	meta := Metadata{Orientation: 1}

	x, err := exif.Decode(r)
	if err != nil {
		// x is still usable after non-critical tag errors
		if exif.IsCriticalError(err) || x == nil {
			return meta, nil
		}
	}
	meta.HasEXIF = true

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			meta.Orientation = v
		}
	}
	if taken, err := x.DateTime(); err == nil {
		meta.Taken = taken
	}
	meta.CameraMake = stringTag(x, exif.Make)
	meta.CameraModel = stringTag(x, exif.Model)

	return meta, nil
}

// ReadFile parses EXIF data from the file at path
func ReadFile(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
