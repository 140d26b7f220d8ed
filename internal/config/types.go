// Package config loads slickdata settings.
//
// Values are layered, lowest to highest: built-in defaults, the YAML config
// file, a .env file in the working directory, SLICKDATA_* environment
// variables, and explicitly set command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/slickdata/internal/credstore"
	"github.com/leapstack-labs/slickdata/internal/history"
)

// File names inside the app config directory.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "slickdata.log"
)

// Default configuration values.
const (
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultOutput       = "table"
	DefaultPreviewLimit = 200
)

// Output formats accepted by --output.
var OutputFormats = []string{"table", "json", "csv", "md", "yaml"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all settings.
type Config struct {
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
	Output          string `koanf:"output"`
	Workers         int    `koanf:"workers"` // 0 selects the bridge default
	SecureStorage   bool   `koanf:"secure_storage"`
	History         bool   `koanf:"history"`
	ConnectionsFile string `koanf:"connections_file"`
	HistoryFile     string `koanf:"history_file"`
	PreviewLimit    int    `koanf:"preview_limit"`

	// Dir is the app config directory. Not loaded from any source.
	Dir string `koanf:"-"`
	// FileUsed is the config file that was read, if any.
	FileUsed string `koanf:"-"`
}

// Default returns the built-in configuration with paths resolved against
// the user config directory.
func Default() (*Config, error) {
	dir, err := credstore.DefaultDir()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Output:        DefaultOutput,
		SecureStorage: true,
		History:       true,
		PreviewLimit:  DefaultPreviewLimit,
		Dir:           dir,
	}
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) resolvePaths() {
	if c.ConnectionsFile == "" {
		c.ConnectionsFile = filepath.Join(c.Dir, credstore.ConnectionsFileName)
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.Dir, history.FileName)
	}
}

// LogFile is where the terminal UI writes its log.
func (c *Config) LogFile() string {
	return filepath.Join(c.Dir, LogFileName)
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	c.Output = strings.ToLower(c.Output)
	if c.Output == "markdown" {
		c.Output = "md"
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (expected one of %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (expected one of %s)", c.LogFormat, strings.Join(logFormats, ", "))
	}
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output %q (expected one of %s)", c.Output, strings.Join(OutputFormats, ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.PreviewLimit < 0 {
		return fmt.Errorf("preview_limit must be >= 0, got %d", c.PreviewLimit)
	}
	return nil
}
