package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LogLevelNormalized(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized level 'WARN', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Store(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Store.Type != "badger" {
		t.Errorf("Expected default store type 'badger', got %q", cfg.Store.Type)
	}
	if cfg.Store.Memory == nil || cfg.Store.S3 == nil {
		t.Fatal("Expected every store map to be initialized")
	}

	want := filepath.Join("/data", "dittows", "badger")
	if got := cfg.Store.Badger["db_path"]; got != want {
		t.Errorf("Expected default badger db_path %q, got %v", want, got)
	}
	want = filepath.Join("/data", "dittows", "blobs")
	if got := cfg.Store.Filesystem["path"]; got != want {
		t.Errorf("Expected default filesystem path %q, got %v", want, got)
	}
	if got := cfg.Store.S3["region"]; got != "us-east-1" {
		t.Errorf("Expected default s3 region 'us-east-1', got %v", got)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/srv/ws"},
		},
		Persistence: PersistenceConfig{
			KeyPrefix:   "ws_",
			Codec:       "CBOR",
			Compression: "LZ4",
		},
		Workspace: WorkspaceConfig{
			RootPath:       "/srv/app",
			MaxUploadBytes: 10,
			RunDelay:       time.Second,
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9100},
	}
	ApplyDefaults(cfg)

	if got := cfg.Store.Badger["db_path"]; got != "/srv/ws" {
		t.Errorf("Expected db_path '/srv/ws' preserved, got %v", got)
	}
	if cfg.Persistence.KeyPrefix != "ws_" {
		t.Errorf("Expected key prefix 'ws_' preserved, got %q", cfg.Persistence.KeyPrefix)
	}
	if cfg.Persistence.Codec != "cbor" || cfg.Persistence.Compression != "lz4" {
		t.Errorf("Expected lowercase cbor/lz4, got %s/%s", cfg.Persistence.Codec, cfg.Persistence.Compression)
	}
	if cfg.Workspace.RootPath != "/srv/app" {
		t.Errorf("Expected root path preserved, got %q", cfg.Workspace.RootPath)
	}
	if cfg.Workspace.RootName != "project" {
		t.Errorf("Expected default root name 'project', got %q", cfg.Workspace.RootName)
	}
	if cfg.Workspace.MaxUploadBytes != 10 {
		t.Errorf("Expected max upload 10 preserved, got %d", cfg.Workspace.MaxUploadBytes)
	}
	if cfg.Workspace.RunDelay != time.Second {
		t.Errorf("Expected run delay 1s preserved, got %v", cfg.Workspace.RunDelay)
	}
	if cfg.Workspace.RestartDelay != time.Second {
		t.Errorf("Expected default restart delay 1s, got %v", cfg.Workspace.RestartDelay)
	}
	if cfg.Metrics.Port != 9100 {
		t.Errorf("Expected metrics port 9100 preserved, got %d", cfg.Metrics.Port)
	}
}
