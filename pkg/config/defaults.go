package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittows/pkg/persistence"
	"github.com/marmos91/dittows/pkg/tree"
	"github.com/marmos91/dittows/pkg/workspace"
	"github.com/spf13/viper"
)

// Default values shared by ApplyDefaults and registerDefaults.
const (
	defaultLogLevel    = "INFO"
	defaultLogFormat   = "text"
	defaultLogOutput   = "stdout"
	defaultStoreType   = "badger"
	defaultCodec       = "json"
	defaultCompression = "none"
	defaultMetricsPort = 9090
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are filled in for every store type so that
//     a generated config file documents all of them
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Store)
	applyPersistenceDefaults(&cfg.Persistence)
	applyWorkspaceDefaults(&cfg.Workspace)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = defaultLogLevel
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = defaultLogFormat
	}
	if cfg.Output == "" {
		cfg.Output = defaultLogOutput
	}
}

// applyStoreDefaults sets blob store defaults.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = defaultStoreType
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(getDataDir(), "badger")
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(getDataDir(), "blobs")
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
}

// applyPersistenceDefaults sets persistence defaults.
func applyPersistenceDefaults(cfg *PersistenceConfig) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = persistence.DefaultKeyPrefix
	}
	if cfg.Codec == "" {
		cfg.Codec = defaultCodec
	}
	cfg.Codec = strings.ToLower(cfg.Codec)

	if cfg.Compression == "" {
		cfg.Compression = defaultCompression
	}
	cfg.Compression = strings.ToLower(cfg.Compression)
}

// applyWorkspaceDefaults sets workspace defaults.
func applyWorkspaceDefaults(cfg *WorkspaceConfig) {
	if cfg.RootPath == "" {
		cfg.RootPath = tree.DefaultRootPath
	}
	if cfg.RootName == "" {
		cfg.RootName = tree.DefaultRootName
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = workspace.DefaultMaxUploadBytes
	}
	if cfg.RunDelay == 0 {
		cfg.RunDelay = workspace.DefaultRunDelay
	}
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = workspace.DefaultRestartDelay
	}
}

// applyMetricsDefaults sets metrics defaults. Metrics are disabled unless
// explicitly enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultMetricsPort
	}
}

// registerDefaults mirrors the scalar defaults into viper so environment
// variables can override keys absent from the config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)
	v.SetDefault("logging.output", defaultLogOutput)
	v.SetDefault("store.type", defaultStoreType)
	v.SetDefault("persistence.key_prefix", persistence.DefaultKeyPrefix)
	v.SetDefault("persistence.codec", defaultCodec)
	v.SetDefault("persistence.compression", defaultCompression)
	v.SetDefault("workspace.root_path", tree.DefaultRootPath)
	v.SetDefault("workspace.root_name", tree.DefaultRootName)
	v.SetDefault("workspace.max_upload_bytes", workspace.DefaultMaxUploadBytes)
	v.SetDefault("workspace.run_delay", workspace.DefaultRunDelay)
	v.SetDefault("workspace.restart_delay", workspace.DefaultRestartDelay)
	v.SetDefault("workspace.require_sign_in", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", defaultMetricsPort)
}

// getDataDir returns the directory for on-disk stores.
//
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share, or falls back to
// the current directory.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "dittows")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dittows-data")
	}
	return filepath.Join(home, ".local", "share", "dittows")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
