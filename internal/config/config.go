package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultMigrationsDir = "./migrations"
	DefaultLogFormat     = "text"
	DefaultLogLevel      = "info"
	DefaultVerify        = true
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL   string
	MigrationsDir string
	LogFormat     string // "text" or "json"
	LogLevel      string // "debug", "info", "warn", "error"
	Verify        bool   // syntax-check scripts before applying them
}

// yamlConfig is the raw YAML file representation. Verify is a pointer so
// an absent key keeps the default instead of reading as false.
type yamlConfig struct {
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	LogFormat     string `yaml:"log_format"`
	LogLevel      string `yaml:"log_level"`
	Verify        *bool  `yaml:"verify"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir: DefaultMigrationsDir,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		Verify:        DefaultVerify,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw), nil
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) *Config {
	cfg := New()

	if raw.DatabaseURL != "" {
		cfg.DatabaseURL = raw.DatabaseURL
	}

	if raw.MigrationsDir != "" {
		cfg.MigrationsDir = raw.MigrationsDir
	}

	if raw.LogFormat != "" {
		cfg.LogFormat = raw.LogFormat
	}

	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}

	if raw.Verify != nil {
		cfg.Verify = *raw.Verify
	}

	return cfg
}

// MergeEnv overrides config fields from SQLSHIFT_* environment variables.
func MergeEnv(cfg *Config) {
	if v := os.Getenv("SQLSHIFT_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv("SQLSHIFT_MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}

	if v := os.Getenv("SQLSHIFT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := os.Getenv("SQLSHIFT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("SQLSHIFT_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verify = b
		}
	}
}

// SlogLevel maps the configured log level to a slog.Level. Unknown values
// fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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
