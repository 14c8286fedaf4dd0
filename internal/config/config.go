// Package config loads server settings from an optional YAML file and the
// environment.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, then
// MESH_MCP_* environment variables. Command line flags are applied by the
// caller after Load.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load.
const (
	EnvConfigFile = "MESH_MCP_CONFIG"
	EnvOutputDir  = "MESH_MCP_OUTPUT_DIR"
	EnvLogLevel   = "MESH_MCP_LOG_LEVEL"
)

// Config holds server settings.
type Config struct {
	// OutputDir receives generated files when a tool call has no output_path.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// LogLevel is one of debug, info, warning or error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warning error"`

	Render Render `yaml:"render"`
}

// Render holds plotting defaults.
type Render struct {
	Width       int    `yaml:"width" validate:"gt=0,lte=4096"`
	Height      int    `yaml:"height" validate:"gt=0,lte=4096"`
	Supersample int    `yaml:"supersample" validate:"min=1,max=4"`
	Background  string `yaml:"background" validate:"required"`
	MeshColor   string `yaml:"mesh_color" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir: filepath.Join(os.TempDir(), "mesh-tools-mcp"),
		LogLevel:  "info",
		Render: Render{
			Width:       800,
			Height:      600,
			Supersample: 2,
			Background:  "white",
			MeshColor:   "lightsteelblue",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// MESH_MCP_CONFIG is consulted; a missing file named by either is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}

	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
