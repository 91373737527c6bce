// Package config loads melodyc settings from a YAML file and MELODY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config path is given. A missing default file is not an error.
const DefaultPath = "melody.yaml"

// Output formats:
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatGo   = "go"
)

// Color modes:
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds melodyc settings. Zero fields are filled with defaults by Load.
type Config struct {
	Compiler struct {
		MaxDepth int `yaml:"max_depth"`
		// Workers limits concurrent compilations in batch mode.
		Workers int `yaml:"workers"`
	} `yaml:"compiler"`

	Output struct {
		Format string `yaml:"format"`
		// Package is used for generated Go source.
		Package string `yaml:"package"`
	} `yaml:"output"`

	Watch struct {
		Dir        string `yaml:"dir"`
		DebounceMs int    `yaml:"debounce_ms"`
		Ext        string `yaml:"ext"`
	} `yaml:"watch"`

	Server struct {
		Listen       string `yaml:"listen"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Logging struct {
		Color string `yaml:"color"`
	} `yaml:"logging"`
}

// Default returns configuration with all defaults applied and no environment overrides.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads configuration file. Empty path means DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	var cfg Config
	// #nosec G304 -- path is provided by trusted flag.
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Compiler.MaxDepth <= 0 {
		cfg.Compiler.MaxDepth = 256
	}
	if cfg.Compiler.Workers <= 0 {
		cfg.Compiler.Workers = 4
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatText
	}
	if strings.TrimSpace(cfg.Output.Package) == "" {
		cfg.Output.Package = "patterns"
	}
	if strings.TrimSpace(cfg.Watch.Dir) == "" {
		cfg.Watch.Dir = "./patterns"
	}
	if cfg.Watch.DebounceMs <= 0 {
		cfg.Watch.DebounceMs = 300
	}
	if strings.TrimSpace(cfg.Watch.Ext) == "" {
		cfg.Watch.Ext = ".mdy"
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = "127.0.0.1:3320"
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 64 * 1024
	}
	if strings.TrimSpace(cfg.Logging.Color) == "" {
		cfg.Logging.Color = ColorAuto
	}
}

func applyEnvOverrides(cfg *Config) {
	if n, ok := envInt("MELODY_MAX_DEPTH"); ok {
		cfg.Compiler.MaxDepth = n
	}
	if n, ok := envInt("MELODY_WORKERS"); ok {
		cfg.Compiler.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv("MELODY_OUTPUT_FORMAT")); v != "" {
		cfg.Output.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("MELODY_WATCH_DIR")); v != "" {
		cfg.Watch.Dir = v
	}
	if n, ok := envInt("MELODY_WATCH_DEBOUNCE_MS"); ok {
		cfg.Watch.DebounceMs = n
	}
	if v := strings.TrimSpace(os.Getenv("MELODY_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("MELODY_COLOR")); v != "" {
		cfg.Logging.Color = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks option values, it is exported for configs modified by command-line flags.
func Validate(cfg *Config) error {
	return validate(cfg)
}

func validate(cfg *Config) error {
	if cfg.Compiler.MaxDepth <= 0 {
		return errors.New("compiler.max_depth must be > 0")
	}
	if cfg.Compiler.Workers <= 0 {
		return errors.New("compiler.workers must be > 0")
	}
	switch cfg.Output.Format {
	case FormatText, FormatJSON, FormatGo:
	default:
		return fmt.Errorf("output.format must be one of text, json, go; got %q", cfg.Output.Format)
	}
	if !isIdentifier(cfg.Output.Package) {
		return fmt.Errorf("output.package must be a Go identifier; got %q", cfg.Output.Package)
	}
	if cfg.Watch.DebounceMs <= 0 {
		return errors.New("watch.debounce_ms must be > 0")
	}
	if !strings.HasPrefix(cfg.Watch.Ext, ".") {
		return fmt.Errorf("watch.ext must start with a dot; got %q", cfg.Watch.Ext)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be > 0")
	}
	switch cfg.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("logging.color must be one of auto, always, never; got %q", cfg.Logging.Color)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}
