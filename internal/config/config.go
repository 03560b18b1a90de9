// Package config holds the application-level configuration: data and log
// locations plus build-level capture limits. Runtime user preferences live in
// the prefs package, not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appDirName = "clippin"

// Config is loaded from a YAML file, with environment overrides applied on
// top. A missing file yields the defaults.
type Config struct {
	// DataDir holds the preference database and the pinned JSON files.
	DataDir string `yaml:"data_dir"`

	// MaxImageBytes caps captured image payloads.
	MaxImageBytes int `yaml:"max_image_bytes"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level             string `yaml:"level"`
	EnableFileLogging bool   `yaml:"enable_file_logging"`
	MaxLogSizeMB      int    `yaml:"max_log_size_mb"`
	MaxLogFiles       int    `yaml:"max_log_files"`
}

// Default returns the configuration used when no file exists. The data
// directory resolves per platform (Application Support on macOS, XDG data
// home elsewhere).
func Default() *Config {
	return &Config{
		DataDir:       filepath.Join(xdg.DataHome, appDirName),
		MaxImageBytes: 10 * 1024 * 1024,
		Log: LogConfig{
			Level:             "info",
			EnableFileLogging: true,
			MaxLogSizeMB:      10,
			MaxLogFiles:       5,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty), fills gaps
// with defaults, and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(cfg)
	cfg.validate()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LogFile returns the rotating log file path, or empty when file logging is
// disabled.
func (c *Config) LogFile() string {
	if !c.Log.EnableFileLogging {
		return ""
	}
	return filepath.Join(c.DataDir, "logs", "clippind.log")
}

// DBFile returns the bbolt database path under the data directory.
func (c *Config) DBFile() string {
	return filepath.Join(c.DataDir, "clippin.db")
}

func (c *Config) validate() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, appDirName)
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = 10 * 1024 * 1024
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxLogSizeMB <= 0 {
		c.Log.MaxLogSizeMB = 10
	}
	if c.Log.MaxLogFiles <= 0 {
		c.Log.MaxLogFiles = 5
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("CLIPPIN_DATA_DIR"); val != "" {
		cfg.DataDir = val
	}
	if val := os.Getenv("CLIPPIN_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("CLIPPIN_MAX_IMAGE_BYTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.MaxImageBytes = n
		}
	}
}
