package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittows/pkg/metrics"
	"github.com/marmos91/dittows/pkg/persistence"
	"github.com/marmos91/dittows/pkg/store/memory"
	"github.com/spf13/afero"
)

func TestCreateBlobStore_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &StoreConfig{Type: "memory"}

	s, err := CreateBlobStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create memory blob store: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func TestCreateBlobStore_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := &StoreConfig{
		Type: "badger",
		Badger: map[string]any{
			"db_path":             filepath.Join(t.TempDir(), "db"),
			"block_cache_size_mb": "8",
		},
	}

	s, err := CreateBlobStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create badger blob store: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Expected stored value 'v', got %q (err %v)", got, err)
	}
}

func TestCreateBlobStore_BadgerMissingPath(t *testing.T) {
	cfg := &StoreConfig{Type: "badger", Badger: map[string]any{}}

	_, err := CreateBlobStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for missing db_path")
	}
	if !strings.Contains(err.Error(), "db_path is required") {
		t.Errorf("Expected 'db_path is required' error, got: %v", err)
	}
}

func TestCreateBlobStore_Filesystem(t *testing.T) {
	ctx := context.Background()
	cfg := &StoreConfig{
		Type: "filesystem",
		Filesystem: map[string]any{
			"path": t.TempDir(),
		},
	}

	s, err := CreateBlobStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem blob store: %v", err)
	}
	defer func() { _ = s.Close() }()
}

func TestCreateFilesystemBlobStore_DirMode(t *testing.T) {
	fsys := afero.NewMemMapFs()

	s, err := createFilesystemBlobStore(context.Background(), fsys, map[string]any{
		"path":     "/ws",
		"dir_mode": 0700,
	})
	if err != nil {
		t.Fatalf("Failed to create filesystem blob store: %v", err)
	}
	defer func() { _ = s.Close() }()

	if ok, _ := afero.DirExists(fsys, "/ws"); !ok {
		t.Error("Expected store directory to be created")
	}
}

func TestCreateBlobStore_FilesystemMissingPath(t *testing.T) {
	cfg := &StoreConfig{Type: "filesystem", Filesystem: map[string]any{}}

	_, err := CreateBlobStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateBlobStore_S3MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
		want    string
	}{
		{"Bucket", map[string]any{"region": "us-east-1"}, "bucket is required"},
		{"Region", map[string]any{"bucket": "ws"}, "region is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateBlobStore(context.Background(), &StoreConfig{Type: "s3", S3: tt.options})
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %q error, got: %v", tt.want, err)
			}
		})
	}
}

func TestNewS3Client_CustomEndpoint(t *testing.T) {
	client, err := newS3Client(context.Background(), s3StoreOptions{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	if err != nil {
		t.Fatalf("Failed to build S3 client: %v", err)
	}

	opts := client.Options()
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("Expected custom endpoint, got %v", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Error("Expected path-style addressing with a custom endpoint")
	}
	if opts.Region != "us-east-1" {
		t.Errorf("Expected region 'us-east-1', got %q", opts.Region)
	}
}

func TestCreateBlobStore_UnknownType(t *testing.T) {
	_, err := CreateBlobStore(context.Background(), &StoreConfig{Type: "postgres"})
	if err == nil {
		t.Fatal("Expected error for unknown store type")
	}
	if !strings.Contains(err.Error(), "unknown blob store type") {
		t.Errorf("Expected 'unknown blob store type' error, got: %v", err)
	}
}

func TestCreateBlobStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CreateBlobStore(ctx, &StoreConfig{Type: "memory"}); err == nil {
		t.Fatal("Expected error for canceled context")
	}
}

func TestCreateGateway(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Persistence.KeyPrefix = "ws_"
	cfg.Persistence.Codec = "cbor"
	cfg.Persistence.Compression = "lz4"
	cfg.Workspace.RootPath = "/srv/app"

	gw, err := CreateGateway(memory.NewMemoryBlobStore(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}
	if got := gw.Key(persistence.BlobFiles); got != "ws_files_data" {
		t.Errorf("Expected key 'ws_files_data', got %q", got)
	}
	if gw.RootPath() != "/srv/app" {
		t.Errorf("Expected root path '/srv/app', got %q", gw.RootPath())
	}

	cfg.Persistence.Codec = "gob"
	if _, err := CreateGateway(memory.NewMemoryBlobStore(), cfg, nil); err == nil {
		t.Error("Expected error for unknown codec")
	}
}

func TestWorkspaceOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Workspace.RequireSignIn = true
	m := metrics.NoOp()

	opts := WorkspaceOptions(cfg, m)
	if opts.MaxUploadBytes != cfg.Workspace.MaxUploadBytes {
		t.Errorf("Expected max upload %d, got %d", cfg.Workspace.MaxUploadBytes, opts.MaxUploadBytes)
	}
	if opts.RunDelay != cfg.Workspace.RunDelay || opts.RestartDelay != cfg.Workspace.RestartDelay {
		t.Error("Expected delays copied from config")
	}
	if !opts.RequireSignIn {
		t.Error("Expected RequireSignIn copied from config")
	}
	if opts.Clock != nil {
		t.Error("Expected clock left unset")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(GetDefaultConfig())

	if result.Server != nil {
		t.Error("Expected no server when metrics are disabled")
	}
	if result.Workspace == nil {
		t.Error("Expected no-op workspace metrics, got nil")
	}
}
