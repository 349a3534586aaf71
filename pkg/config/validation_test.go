package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"LogFormat", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
		{"StoreType", func(c *Config) { c.Store.Type = "postgres" }, "Type"},
		{"Codec", func(c *Config) { c.Persistence.Codec = "gob" }, "Codec"},
		{"Compression", func(c *Config) { c.Persistence.Compression = "gzip" }, "Compression"},
		{"EmptyKeyPrefix", func(c *Config) { c.Persistence.KeyPrefix = "" }, "KeyPrefix"},
		{"RelativeRootPath", func(c *Config) { c.Workspace.RootPath = "home/app" }, "RootPath"},
		{"RootNameWithSlash", func(c *Config) { c.Workspace.RootName = "a/b" }, "RootName"},
		{"ZeroUploadLimit", func(c *Config) { c.Workspace.MaxUploadBytes = 0 }, "MaxUploadBytes"},
		{"NegativeRunDelay", func(c *Config) { c.Workspace.RunDelay = -1 }, "RunDelay"},
		{"MetricsPort", func(c *Config) { c.Metrics.Port = 70000 }, "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_RootPathSegments(t *testing.T) {
	for _, root := range []string{"/home/app/", "/home//app", "/home/./app", "/home/../app"} {
		cfg := GetDefaultConfig()
		cfg.Workspace.RootPath = root

		if err := Validate(cfg); err == nil {
			t.Errorf("Expected validation error for root path %q", root)
		}
	}

	cfg := GetDefaultConfig()
	cfg.Workspace.RootPath = "/"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected '/' to be a valid root path, got: %v", err)
	}
}

func TestValidate_StoreOptions(t *testing.T) {
	t.Run("BadgerNeedsPath", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Store.Badger["db_path"] = ""

		err := Validate(cfg)
		if err == nil || !strings.Contains(err.Error(), "db_path") {
			t.Fatalf("Expected db_path error, got: %v", err)
		}

		cfg.Store.Badger["in_memory"] = true
		if err := Validate(cfg); err != nil {
			t.Errorf("Expected in-memory badger without path to validate, got: %v", err)
		}
	})

	t.Run("FilesystemNeedsPath", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Store.Type = "filesystem"
		cfg.Store.Filesystem["path"] = " "

		err := Validate(cfg)
		if err == nil || !strings.Contains(err.Error(), "path is required") {
			t.Fatalf("Expected path error, got: %v", err)
		}
	})

	t.Run("S3NeedsBucket", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Store.Type = "s3"

		err := Validate(cfg)
		if err == nil || !strings.Contains(err.Error(), "bucket is required") {
			t.Fatalf("Expected bucket error, got: %v", err)
		}

		cfg.Store.S3["bucket"] = "workspaces"
		if err := Validate(cfg); err != nil {
			t.Errorf("Expected s3 config with bucket to validate, got: %v", err)
		}
	})

	t.Run("OtherStoreOptionsIgnored", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Store.Type = "memory"
		cfg.Store.Badger["db_path"] = ""

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected unused badger section to be ignored, got: %v", err)
		}
	})
}
