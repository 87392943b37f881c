// Package config loads application configuration from environment
// variables, with an optional YAML file layered underneath.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Plot    PlotConfig    `yaml:"plot" envconfig:"PLOT"`
}

// ServerConfig contains HTTP server configuration for the render endpoint
type ServerConfig struct {
	Port         int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output"`
}

// PlotConfig contains figure rendering defaults
type PlotConfig struct {
	Width  int `yaml:"width" envconfig:"WIDTH" default:"900"`
	Height int `yaml:"height" envconfig:"HEIGHT" default:"600"`
}

// Load loads configuration from environment variables and an optional
// config file named by PKPLOT_CONFIG_FILE. Environment variables take
// precedence; file values fill in where no env var is set, and struct tag
// defaults cover the rest.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PKPLOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := os.Getenv("PKPLOT_CONFIG_FILE"); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// A file value applies only where the corresponding env var is unset,
// because envconfig fills defaults into unset fields and a zero-check alone
// cannot tell a default apart from an explicit env value.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := envConfig

	if fileConfig.Server.Port != 0 && !envSet("PKPLOT_SERVER_PORT") {
		merged.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("PKPLOT_SERVER_READ_TIMEOUT") {
		merged.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("PKPLOT_SERVER_WRITE_TIMEOUT") {
		merged.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if fileConfig.Server.IdleTimeout != 0 && !envSet("PKPLOT_SERVER_IDLE_TIMEOUT") {
		merged.Server.IdleTimeout = fileConfig.Server.IdleTimeout
	}
	if fileConfig.Logging.Level != "" && !envSet("PKPLOT_LOGGING_LEVEL") {
		merged.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Format != "" && !envSet("PKPLOT_LOGGING_FORMAT") {
		merged.Logging.Format = fileConfig.Logging.Format
	}
	if fileConfig.Paths.DataDir != "" && !envSet("PKPLOT_PATHS_DATA_DIR") {
		merged.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if fileConfig.Paths.OutputDir != "" && !envSet("PKPLOT_PATHS_OUTPUT_DIR") {
		merged.Paths.OutputDir = fileConfig.Paths.OutputDir
	}
	if fileConfig.Plot.Width != 0 && !envSet("PKPLOT_PLOT_WIDTH") {
		merged.Plot.Width = fileConfig.Plot.Width
	}
	if fileConfig.Plot.Height != 0 && !envSet("PKPLOT_PLOT_HEIGHT") {
		merged.Plot.Height = fileConfig.Plot.Height
	}

	return merged
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("invalid plot size %dx%d", c.Plot.Width, c.Plot.Height)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return nil
}

// LogLevel converts the configured level string to a slog.Level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger from the logging configuration.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	var handler slog.Handler
	if strings.ToLower(c.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
