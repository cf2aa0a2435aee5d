package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Highlight configures the border drawn around the target window while
// move mode is active.
type Highlight struct {
	// Color is the border color as a hex string, e.g. "#ff0000".
	Color string `yaml:"color,omitempty"`
	// Thickness is the border thickness in pixels.
	Thickness int `yaml:"thickness,omitempty"`
}

// LoggingConfig configures the action log written by the daemon.
type LoggingConfig struct {
	// Enabled turns action logging on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/nudge/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	Hotkey          string        `yaml:"hotkey"`
	MoveModeTimeout int           `yaml:"move_mode_timeout"`
	Bell            *bool         `yaml:"bell,omitempty"`
	Highlight       Highlight     `yaml:"highlight,omitempty"`
	Display         string        `yaml:"display,omitempty"`
	XAuthority      string        `yaml:"xauthority,omitempty"`
	LogLevel        string        `yaml:"log_level"`
	Logging         LoggingConfig `yaml:"logging,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Hotkey:          "Mod4-Mod1-m", // Super+Alt+M for "move"
		MoveModeTimeout: 10,            // 10 seconds default timeout
		Highlight: Highlight{
			Color:     "#ff0000",
			Thickness: 4,
		},
		LogLevel: "info",
	}
}

// GetBell returns the effective bell setting, defaulting to true.
func (c *Config) GetBell() bool {
	if c == nil || c.Bell == nil {
		return true
	}
	return *c.Bell
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			// Last resort fallback - use current directory
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/nudge/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to the given path.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.Hotkey == "" {
		return &ValidationError{Path: "hotkey", Err: fmt.Errorf("hotkey is required")}
	}
	if c.MoveModeTimeout < 0 {
		return &ValidationError{Path: "move_mode_timeout", Err: fmt.Errorf("move_mode_timeout must be >= 0")}
	}
	if err := validateHighlightColor(c.Highlight.Color); err != nil {
		return &ValidationError{Path: "highlight.color", Err: err}
	}
	if c.Highlight.Thickness < 1 || c.Highlight.Thickness > 32 {
		return &ValidationError{Path: "highlight.thickness", Err: fmt.Errorf("thickness must be between 1 and 32")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

// ParseHighlightColor converts a "#rrggbb" string to an X11 pixel value.
func ParseHighlightColor(color string) (uint32, error) {
	s := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("color must be in #rrggbb form, got %q", color)
	}
	var pixel uint32
	if _, err := fmt.Sscanf(s, "%06x", &pixel); err != nil {
		return 0, fmt.Errorf("color must be in #rrggbb form, got %q", color)
	}
	return pixel, nil
}

func validateHighlightColor(color string) error {
	_, err := ParseHighlightColor(color)
	return err
}
