package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents a tapec.yaml file. Every field is optional; omitted
// fields keep the value from Default.
type Config struct {
	// Dialect selects the builder and interpreter pair: basic or compressed.
	Dialect string `yaml:"dialect"`

	// TapeSize is the number of cells in the memory tape.
	TapeSize int `yaml:"tape_size"`

	// Input is the default input payload when none is given on the command line.
	Input string `yaml:"input"`

	// History is the sqlite file used by bench and history. Empty disables it.
	History string `yaml:"history"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the execution service.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// MaxConcurrent bounds simultaneous executions. Zero means unbounded.
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxInstructions stops a request once its tally reaches this value.
	MaxInstructions int64 `yaml:"max_instructions"`

	// MaxOutput caps the bytes a request may write.
	MaxOutput int `yaml:"max_output"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	// Verbosity follows commonlog: -4 none, 0 notice, 1 info, 2 debug.
	Verbosity int `yaml:"verbosity"`

	// File receives log output. Empty logs to stderr.
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Dialect:  DefaultDialect,
		TapeSize: DefaultTapeSize,
		History:  DefaultHistoryFile,
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			MaxConcurrent:   DefaultMaxConcurrent,
			MaxInstructions: DefaultMaxInstructions,
			MaxOutput:       DefaultMaxOutput,
		},
	}
}

// LoadConfig reads and parses a tapec.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses tapec.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	switch c.Dialect {
	case DialectBasic, DialectCompressed:
	default:
		return fmt.Errorf("unknown dialect %q (want %s or %s)", c.Dialect, DialectBasic, DialectCompressed)
	}
	if c.TapeSize <= 0 {
		return fmt.Errorf("tape_size must be positive, got %d", c.TapeSize)
	}
	if c.Server.MaxConcurrent < 0 {
		return fmt.Errorf("server.max_concurrent must not be negative, got %d", c.Server.MaxConcurrent)
	}
	if c.Server.MaxInstructions <= 0 {
		return fmt.Errorf("server.max_instructions must be positive, got %d", c.Server.MaxInstructions)
	}
	if c.Server.MaxOutput <= 0 {
		return fmt.Errorf("server.max_output must be positive, got %d", c.Server.MaxOutput)
	}
	return nil
}

// Find resolves which config file to load. An explicit path wins, then
// $TAPEC_CONFIG, then tapec.yaml in dir. Returns "" when none applies.
func Find(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env
	}
	candidate := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Resolve loads the config chosen by Find, or Default when there is none.
func Resolve(explicit, dir string) (*Config, error) {
	path := Find(explicit, dir)
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}
