package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/menta2k/photoprep/internal/fsutil"
	"github.com/menta2k/photoprep/pkg/compress"
)

// EnvPrefix prefixes every environment override, e.g. PHOTOPREP_COMPRESS_CEILING_BYTES
const EnvPrefix = "PHOTOPREP"

// Config holds the application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Compress CompressConfig `mapstructure:"compress"`
	Orient   OrientConfig   `mapstructure:"orient"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig holds where photos are written and how they are named
type StorageConfig struct {
	PicturesDir    string `mapstructure:"pictures_dir"`
	MediaDir       string `mapstructure:"media_dir"`
	FilesDir       string `mapstructure:"files_dir"`
	AppName        string `mapstructure:"app_name"`
	FilenameFormat string `mapstructure:"filename_format"`
}

// CompressConfig holds the upload size bound and quality search
type CompressConfig struct {
	CeilingBytes   int `mapstructure:"ceiling_bytes"`
	InitialQuality int `mapstructure:"initial_quality"`
	QualityStep    int `mapstructure:"quality_step"`
	MinQuality     int `mapstructure:"min_quality"`
}

// OrientConfig holds configuration for orientation correction
type OrientConfig struct {
	JPEGQuality int  `mapstructure:"jpeg_quality"`
	ApplyEXIF   bool `mapstructure:"apply_exif"`
}

// PreviewConfig holds configuration for display previews
type PreviewConfig struct {
	MaxDimension int    `mapstructure:"max_dimension"`
	Format       string `mapstructure:"format"`
	Quality      int    `mapstructure:"quality"`
}

// LoggingConfig holds configuration for the logger
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	JSONFormat bool   `mapstructure:"json_format"`
}

// Default returns a configuration with default values
func Default() *Config {
	base := defaultBaseDir()
	return &Config{
		Storage: StorageConfig{
			PicturesDir:    filepath.Join(base, "Pictures"),
			MediaDir:       filepath.Join(base, "media"),
			FilesDir:       filepath.Join(base, "files"),
			AppName:        "MyCamera",
			FilenameFormat: fsutil.DefaultStampFormat,
		},
		Compress: CompressConfig{
			CeilingBytes:   compress.DefaultCeiling,
			InitialQuality: compress.DefaultInitialQuality,
			QualityStep:    compress.DefaultStep,
			MinQuality:     compress.DefaultMinQuality,
		},
		Orient: OrientConfig{
			JPEGQuality: 100,
			ApplyEXIF:   true,
		},
		Preview: PreviewConfig{
			MaxDimension: 1024,
			Format:       "jpg",
			Quality:      85,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.pictures_dir", d.Storage.PicturesDir)
	v.SetDefault("storage.media_dir", d.Storage.MediaDir)
	v.SetDefault("storage.files_dir", d.Storage.FilesDir)
	v.SetDefault("storage.app_name", d.Storage.AppName)
	v.SetDefault("storage.filename_format", d.Storage.FilenameFormat)
	v.SetDefault("compress.ceiling_bytes", d.Compress.CeilingBytes)
	v.SetDefault("compress.initial_quality", d.Compress.InitialQuality)
	v.SetDefault("compress.quality_step", d.Compress.QualityStep)
	v.SetDefault("compress.min_quality", d.Compress.MinQuality)
	v.SetDefault("orient.jpeg_quality", d.Orient.JPEGQuality)
	v.SetDefault("orient.apply_exif", d.Orient.ApplyEXIF)
	v.SetDefault("preview.max_dimension", d.Preview.MaxDimension)
	v.SetDefault("preview.format", d.Preview.Format)
	v.SetDefault("preview.quality", d.Preview.Quality)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json_format", d.Logging.JSONFormat)
}

// Load reads configuration from defaults, an optional file and PHOTOPREP_*
// environment variables, in increasing priority. An empty path searches the
// working directory and the user config directory for photoprep.{yaml,json,toml}.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("photoprep")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(GetConfigPath()))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SaveToFile writes the configuration to filename; the format follows the
// extension (yaml, json or toml)
func (c *Config) SaveToFile(filename string) error {
	if err := fsutil.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, c)
	if err := v.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CompressorConfig converts the compress section for the compressor
func (c *Config) CompressorConfig() compress.Config {
	return compress.Config{
		CeilingBytes:   c.Compress.CeilingBytes,
		InitialQuality: c.Compress.InitialQuality,
		Step:           c.Compress.QualityStep,
		MinQuality:     c.Compress.MinQuality,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Storage.PicturesDir == "" {
		return fmt.Errorf("storage.pictures_dir is required")
	}
	if c.Storage.FilesDir == "" {
		return fmt.Errorf("storage.files_dir is required")
	}
	if c.Storage.FilenameFormat == "" {
		return fmt.Errorf("storage.filename_format is required")
	}
	if strings.ContainsAny(c.Storage.FilenameFormat, `/\`) {
		return fmt.Errorf("storage.filename_format must not contain path separators")
	}

	if err := c.CompressorConfig().Validate(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	if c.Orient.JPEGQuality < 1 || c.Orient.JPEGQuality > 100 {
		return fmt.Errorf("orient.jpeg_quality must be between 1 and 100")
	}

	if c.Preview.MaxDimension < 1 {
		return fmt.Errorf("preview.max_dimension must be positive")
	}
	switch strings.ToLower(c.Preview.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("preview.format must be jpg, png or webp")
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		return fmt.Errorf("preview.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./photoprep.yaml"
	}
	return filepath.Join(dir, "photoprep", "photoprep.yaml")
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "photoprep")
}
