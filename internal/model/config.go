package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr                 string `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeoutSec int    `mapstructure:"read_header_timeout_sec" yaml:"read_header_timeout_sec"`
	ShutdownTimeoutSec   int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	MaxWebhookBodyBytes  int64  `mapstructure:"max_webhook_body_bytes" yaml:"max_webhook_body_bytes"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Development switches to a human-readable console encoder.
	Development bool `mapstructure:"development" yaml:"development"`
}

// ImportConfig controls the scheduled issue importer.
type ImportConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Schedule is a cron expression or descriptor such as "@every 10m".
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// CredentialsConfig configures the keyring file backend used when no
// OS keychain is available (typical on servers).
type CredentialsConfig struct {
	FileDir      string `mapstructure:"file_dir" yaml:"file_dir"`
	FilePassword string `mapstructure:"file_password" yaml:"file_password"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Import      ImportConfig      `mapstructure:"import" yaml:"import"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
}

// envPrefix is the prefix for environment overrides, e.g.
// KANEO_SERVER_ADDR overrides server.addr.
const envPrefix = "KANEO"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/kaneo-automation/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "kaneo-automation", "config.yaml")
}

// defaultDataDir returns the directory holding the database and the
// credential file backend.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "kaneo-automation")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		Server: ServerConfig{
			Addr:                 ":1337",
			ReadHeaderTimeoutSec: 15,
			ShutdownTimeoutSec:   10,
			MaxWebhookBodyBytes:  5 << 20,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "kaneo.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Import: ImportConfig{
			Enabled:  true,
			Schedule: "@every 10m",
		},
		Credentials: CredentialsConfig{
			FileDir: filepath.Join(dataDir, "credentials"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with KANEO_ override file values. If the
// file does not exist, defaults (plus environment overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as the key registry AutomaticEnv needs for Unmarshal.
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.read_header_timeout_sec", defaults.Server.ReadHeaderTimeoutSec)
	v.SetDefault("server.shutdown_timeout_sec", defaults.Server.ShutdownTimeoutSec)
	v.SetDefault("server.max_webhook_body_bytes", defaults.Server.MaxWebhookBodyBytes)
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.development", defaults.Log.Development)
	v.SetDefault("import.enabled", defaults.Import.Enabled)
	v.SetDefault("import.schedule", defaults.Import.Schedule)
	v.SetDefault("credentials.file_dir", defaults.Credentials.FileDir)
	v.SetDefault("credentials.file_password", defaults.Credentials.FilePassword)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.MaxWebhookBodyBytes <= 0 {
		cfg.Server.MaxWebhookBodyBytes = defaults.Server.MaxWebhookBodyBytes
	}
	if strings.TrimSpace(cfg.Import.Schedule) == "" {
		cfg.Import.Schedule = defaults.Import.Schedule
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("import", cfg.Import)
	v.Set("credentials", cfg.Credentials)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
