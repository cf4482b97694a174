package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const defaultSocketPath = "/tmp/tagtree.sock"

// Config holds the settings shared by all commands. Values are layered:
// defaults, then the YAML config file, then TAGTREE_* environment variables,
// then command line flags.
type Config struct {
	SocketPath string `yaml:"socket"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	Format     string `yaml:"format"`
	Color      bool   `yaml:"color"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		SocketPath: defaultSocketPath,
		LogLevel:   "info",
		Format:     string(FormatJSON),
		Color:      true,
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from
// the file keep their current value.
func LoadConfigFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays TAGTREE_* environment variables onto cfg.
func ApplyEnv(cfg Config) Config {
	if v, ok := os.LookupEnv("TAGTREE_SOCKET"); ok && v != "" {
		cfg.SocketPath = v
	}
	if v, ok := os.LookupEnv("TAGTREE_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("TAGTREE_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := os.LookupEnv("TAGTREE_FORMAT"); ok && v != "" {
		cfg.Format = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.Color = false
	}
	return cfg
}

// Validate checks values that would otherwise fail later.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path must be set")
	}
	if _, err := ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// NewLogger builds the process logger. JSON goes to stderr unless a log file
// is configured. When quiet is set and no file is configured the logger
// discards everything, which keeps full-screen views intact.
func NewLogger(cfg Config, quiet bool) (*zap.Logger, error) {
	if quiet && cfg.LogFile == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Sampling = nil
	if cfg.LogFile != "" {
		config.OutputPaths = []string{cfg.LogFile}
		config.ErrorOutputPaths = []string{cfg.LogFile}
	}
	return config.Build()
}
