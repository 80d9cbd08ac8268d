// Package config loads interpreter settings from lox.toml or lox.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the full set of interpreter settings.
type Config struct {
	VM     VM     `toml:"vm" yaml:"vm"`
	Disasm Disasm `toml:"disasm" yaml:"disasm"`
	Log    Log    `toml:"log" yaml:"log"`
}

// VM configures execution.
type VM struct {
	// Trace prints the stack and each instruction to stderr as it runs.
	Trace    bool `toml:"trace" yaml:"trace"`
	MaxStack int  `toml:"max-stack" yaml:"max-stack"`
}

// Disasm configures the chunk listing printed before execution.
type Disasm struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	Description string `toml:"description" yaml:"description"`
}

// Log configures the commonlog backend.
type Log struct {
	// Verbosity 0 is silent; higher values enable more levels.
	Verbosity int `toml:"verbosity" yaml:"verbosity"`
	// File is the log destination; empty means stderr.
	File string `toml:"file" yaml:"file"`
}

const (
	DefaultMaxStack    = 1024
	DefaultDescription = "code"
)

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		VM:     VM{MaxStack: DefaultMaxStack},
		Disasm: Disasm{Description: DefaultDescription},
	}
}

// Load reads path, choosing the decoder from its extension. Keys missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes data as the format named by path's extension.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format %q", path, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the interpreter cannot honor.
func (c *Config) Validate() error {
	if c.VM.MaxStack < 0 {
		return fmt.Errorf("vm.max-stack must not be negative, got %d", c.VM.MaxStack)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// LogPath returns the log file for commonlog.Configure, nil for stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	return &path
}
