package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"shot.png", true},
		{"shot.webp", true},
		{"notes.txt", false},
		{"archive", false},
	}

	for _, test := range tests {
		if got := IsImageFile(test.input); got != test.expected {
			t.Errorf("IsImageFile(%s) = %v, expected %v", test.input, got, test.expected)
		}
	}
}

func TestIsJPEGFile(t *testing.T) {
	for name, expected := range map[string]bool{
		"photo.jpg":  true,
		"photo.JPEG": true,
		"shot.png":   false,
		"shot.webp":  false,
		"archive":    false,
	} {
		if got := IsJPEGFile(name); got != expected {
			t.Errorf("IsJPEGFile(%s) = %v, expected %v", name, got, expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000000, "1.0 MB"},
		{-5, "0 B"},
	}

	for _, test := range tests {
		if got := FormatFileSize(test.input); got != test.expected {
			t.Errorf("FormatFileSize(%d) = %s, expected %s", test.input, got, test.expected)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")

	if err := os.WriteFile(path, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("Expected content %q, got %q", "new", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicKeepsMode(t *testing.T) {
	dir := t.TempDir()

	for _, mode := range []os.FileMode{0o644, 0o640} {
		path := filepath.Join(dir, "photo.jpg")
		if err := os.WriteFile(path, []byte("old content"), mode); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, mode); err != nil {
			t.Fatal(err)
		}

		if err := WriteFileAtomic(path, []byte("rewritten")); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != mode {
			t.Errorf("Expected mode %v after rewrite, got %v", mode, info.Mode().Perm())
		}
	}

	fresh := filepath.Join(dir, "fresh.jpg")
	if err := WriteFileAtomic(fresh, []byte("new")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	info, err := os.Stat(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Expected mode 0644 for a new file, got %v", info.Mode().Perm())
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "photo.jpg")
	if err := WriteFileAtomic(path, []byte("x")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picked.jpg")

	n, err := ImportFile(strings.NewReader("gallery bytes"), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if n != int64(len("gallery bytes")) {
		t.Errorf("Expected %d bytes copied, got %d", len("gallery bytes"), n)
	}

	size, err := FileSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != n {
		t.Errorf("Expected file size %d, got %d", n, size)
	}
}
