package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	if cfg.Compress.CeilingBytes != 1000000 {
		t.Errorf("Expected ceiling 1000000, got %d", cfg.Compress.CeilingBytes)
	}
	if cfg.Storage.FilenameFormat != "02-Jan-2006" {
		t.Errorf("Unexpected filename format %s", cfg.Storage.FilenameFormat)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty pictures dir", func(c *Config) { c.Storage.PicturesDir = "" }},
		{"separator in format", func(c *Config) { c.Storage.FilenameFormat = "2006/01/02" }},
		{"zero ceiling", func(c *Config) { c.Compress.CeilingBytes = 0 }},
		{"floor above start", func(c *Config) { c.Compress.MinQuality = 100; c.Compress.InitialQuality = 50 }},
		{"orient quality", func(c *Config) { c.Orient.JPEGQuality = 101 }},
		{"preview format", func(c *Config) { c.Preview.Format = "gif" }},
		{"preview size", func(c *Config) { c.Preview.MaxDimension = 0 }},
	}

	for _, test := range tests {
		cfg := Default()
		test.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photoprep.yaml")
	content := `
compress:
  ceiling_bytes: 500000
  quality_step: 10
storage:
  app_name: Selfies
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Compress.CeilingBytes != 500000 {
		t.Errorf("Expected ceiling 500000, got %d", cfg.Compress.CeilingBytes)
	}
	if cfg.Compress.QualityStep != 10 {
		t.Errorf("Expected step 10, got %d", cfg.Compress.QualityStep)
	}
	if cfg.Compress.InitialQuality != 100 {
		t.Errorf("Expected default initial quality 100, got %d", cfg.Compress.InitialQuality)
	}
	if cfg.Storage.AppName != "Selfies" {
		t.Errorf("Expected app name Selfies, got %s", cfg.Storage.AppName)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photoprep.yaml")
	if err := os.WriteFile(path, []byte("compress:\n  ceiling_bytes: 500000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PHOTOPREP_COMPRESS_CEILING_BYTES", "250000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compress.CeilingBytes != 250000 {
		t.Errorf("Expected env override 250000, got %d", cfg.Compress.CeilingBytes)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photoprep.yaml")
	if err := os.WriteFile(path, []byte("orient:\n  jpeg_quality: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error")
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "photoprep.yaml")

	cfg := Default()
	cfg.Compress.CeilingBytes = 123456
	cfg.Preview.Format = "webp"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Compress.CeilingBytes != 123456 {
		t.Errorf("Expected ceiling 123456, got %d", loaded.Compress.CeilingBytes)
	}
	if loaded.Preview.Format != "webp" {
		t.Errorf("Expected preview format webp, got %s", loaded.Preview.Format)
	}
}

func TestCompressorConfig(t *testing.T) {
	cfg := Default()
	cc := cfg.CompressorConfig()

	if cc.CeilingBytes != cfg.Compress.CeilingBytes || cc.Step != cfg.Compress.QualityStep ||
		cc.InitialQuality != cfg.Compress.InitialQuality || cc.MinQuality != cfg.Compress.MinQuality {
		t.Errorf("CompressorConfig mismatch: %+v vs %+v", cc, cfg.Compress)
	}
}
