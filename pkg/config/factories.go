package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/metrics"
	"github.com/marmos91/dittows/pkg/persistence"
	"github.com/marmos91/dittows/pkg/store"
	storeBadger "github.com/marmos91/dittows/pkg/store/badger"
	storeFs "github.com/marmos91/dittows/pkg/store/fs"
	"github.com/marmos91/dittows/pkg/store/memory"
	storeS3 "github.com/marmos91/dittows/pkg/store/s3"
	"github.com/marmos91/dittows/pkg/workspace"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
)

// CreateBlobStore creates a blob store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/memory (in-process, ephemeral)
//   - "badger": Uses pkg/store/badger (BadgerDB storage, persistent)
//   - "filesystem": Uses pkg/store/fs (one file per key on the local filesystem)
//   - "s3": Uses pkg/store/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Blob store configuration
//
// Returns:
//   - store.BlobStore: Initialized blob store
//   - error: Configuration or initialization error
func CreateBlobStore(ctx context.Context, cfg *StoreConfig) (store.BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return memory.NewMemoryBlobStore(), nil
	case "badger":
		return createBadgerBlobStore(ctx, cfg.Badger)
	case "filesystem":
		return createFilesystemBlobStore(ctx, afero.NewOsFs(), cfg.Filesystem)
	case "s3":
		return createS3BlobStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q (supported: memory, badger, filesystem, s3)", cfg.Type)
	}
}

// createBadgerBlobStore creates a BadgerDB-based persistent blob store.
func createBadgerBlobStore(ctx context.Context, options map[string]any) (store.BlobStore, error) {
	var storeCfg storeBadger.BadgerBlobStoreConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &storeCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode badger blob store options: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger blob store: db_path is required")
	}

	s, err := storeBadger.NewBadgerBlobStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger blob store: %w", err)
	}

	logger.Info("Badger blob store initialized: path=%s, in_memory=%t", storeCfg.DBPath, storeCfg.InMemory)
	return s, nil
}

// createFilesystemBlobStore creates a filesystem-based blob store on fsys.
func createFilesystemBlobStore(ctx context.Context, fsys afero.Fs, options map[string]any) (store.BlobStore, error) {
	var storeCfg storeFs.FSBlobStoreConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &storeCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem blob store options: %w", err)
	}

	if storeCfg.BasePath == "" {
		return nil, fmt.Errorf("filesystem blob store: path is required")
	}

	s, err := storeFs.NewFSBlobStore(ctx, fsys, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem blob store: %w", err)
	}

	logger.Info("Filesystem blob store initialized: path=%s", storeCfg.BasePath)
	return s, nil
}

// s3StoreOptions is the S3 section of the store configuration.
type s3StoreOptions struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	MaxRetries      int    `mapstructure:"max_retries"`
	SkipBucketCheck bool   `mapstructure:"skip_bucket_check"`
}

// createS3BlobStore creates an S3-based blob store.
func createS3BlobStore(ctx context.Context, options map[string]any) (store.BlobStore, error) {
	var storeCfg s3StoreOptions
	if err := mapstructure.WeakDecode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 blob store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 blob store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 blob store: region is required")
	}

	client, err := newS3Client(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	s, err := storeS3.NewS3BlobStore(ctx, storeS3.S3BlobStoreConfig{
		Client:          client,
		Bucket:          storeCfg.Bucket,
		KeyPrefix:       storeCfg.KeyPrefix,
		SkipBucketCheck: storeCfg.SkipBucketCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("S3 blob store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return s, nil
}

// newS3Client builds an S3 client from the store options.
func newS3Client(ctx context.Context, opts s3StoreOptions) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Set credentials if provided, otherwise use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Workspace blobs are small; retry transient failures a few more times
	// than the SDK default of 3.
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint for MinIO, Localstack, etc.
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// CreateGateway creates the persistence gateway for blobs.
func CreateGateway(blobs store.BlobStore, cfg *Config, m metrics.WorkspaceMetrics) (*persistence.Gateway, error) {
	codec, err := persistence.ParseCodec(cfg.Persistence.Codec)
	if err != nil {
		return nil, fmt.Errorf("persistence.codec: %w", err)
	}
	compression, err := persistence.ParseCompression(cfg.Persistence.Compression)
	if err != nil {
		return nil, fmt.Errorf("persistence.compression: %w", err)
	}

	return persistence.NewGateway(blobs, persistence.Options{
		KeyPrefix:   cfg.Persistence.KeyPrefix,
		Codec:       codec,
		Compression: compression,
		RootPath:    cfg.Workspace.RootPath,
		RootName:    cfg.Workspace.RootName,
	}, m), nil
}

// WorkspaceOptions converts the workspace section into workspace.Options.
// The clock is left unset so the workspace uses the real one.
func WorkspaceOptions(cfg *Config, m metrics.WorkspaceMetrics) workspace.Options {
	return workspace.Options{
		MaxUploadBytes: cfg.Workspace.MaxUploadBytes,
		RunDelay:       cfg.Workspace.RunDelay,
		RestartDelay:   cfg.Workspace.RestartDelay,
		RequireSignIn:  cfg.Workspace.RequireSignIn,
		Metrics:        m,
	}
}
