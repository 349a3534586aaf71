package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoWS configuration.
//
// This structure captures all configurable aspects of a workspace:
//   - Logging configuration
//   - Blob store selection and configuration (store-specific)
//   - Persistence encoding (key prefix, codec, compression)
//   - Workspace behavior (root path, upload limit, simulated delays)
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOWS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each blob store implementation defines its own configuration type. The
// Store section contains type-specific maps (e.g., store.badger, store.s3)
// and only the map matching the selected type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Store specifies the blob store type and type-specific configuration
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Persistence controls how workspace blobs are encoded
	Persistence PersistenceConfig `mapstructure:"persistence" yaml:"persistence"`

	// Workspace controls workspace behavior
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// StoreConfig specifies blob store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: memory, badger, filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger filesystem s3"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// PersistenceConfig controls blob encoding. Readers accept every codec and
// compression regardless of these settings, so they can change between
// runs.
type PersistenceConfig struct {
	// KeyPrefix namespaces every store key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" validate:"required"`

	// Codec is the serialization used for writes
	// Valid values: json, cbor
	Codec string `mapstructure:"codec" yaml:"codec" validate:"required,oneof=json cbor"`

	// Compression is applied to payloads on write
	// Valid values: none, zstd, lz4
	Compression string `mapstructure:"compression" yaml:"compression" validate:"required,oneof=none zstd lz4"`
}

// WorkspaceConfig controls workspace behavior.
type WorkspaceConfig struct {
	// RootPath is the fixed absolute path of the tree root
	RootPath string `mapstructure:"root_path" yaml:"root_path" validate:"required,startswith=/"`

	// RootName is the display name of a freshly seeded root
	RootName string `mapstructure:"root_name" yaml:"root_name" validate:"required,excludes=/"`

	// MaxUploadBytes rejects uploaded files larger than this
	MaxUploadBytes int `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	// RunDelay is the simulated start-up time of a run
	RunDelay time.Duration `mapstructure:"run_delay" yaml:"run_delay" validate:"gte=0"`

	// RestartDelay is the simulated start-up time of a restart
	RestartDelay time.Duration `mapstructure:"restart_delay" yaml:"restart_delay" validate:"gte=0"`

	// RequireSignIn rejects workspace changes while nobody is signed in
	RequireSignIn bool `mapstructure:"require_sign_in" yaml:"require_sign_in"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port serving /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOWS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOWS_ prefix and underscores
	// Example: DITTOWS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every
	// scalar setting is registered with its default.
	registerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittows/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittows")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittows")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
