package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittows/pkg/store"
)

// BadgerBlobStore implements store.BlobStore on top of BadgerDB.
//
// Each blob is one BadgerDB key. Writes run in their own read-write
// transaction, so a Put is durable once it returns (subject to
// SyncWrites) and readers never observe a partial value.
//
// Thread Safety:
// BadgerDB transactions provide isolation; the store holds no lock of
// its own.
type BadgerBlobStore struct {
	db *badger.DB
}

var _ store.BlobStore = (*BadgerBlobStore)(nil)

// BadgerBlobStoreConfig configures a BadgerBlobStore.
type BadgerBlobStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	// Ignored when InMemory is set.
	DBPath string `mapstructure:"db_path"`

	// InMemory keeps all data in memory (no files are written)
	InMemory bool `mapstructure:"in_memory"`

	// SyncWrites fsyncs every write before returning
	SyncWrites bool `mapstructure:"sync_writes"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 16)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`
}

// NewBadgerBlobStore opens (or creates) a BadgerDB database.
//
// Parameters:
//   - ctx: Context for cancellation (checked before opening)
//   - config: Database location and tuning
//
// Returns:
//   - *BadgerBlobStore: Store ready for use
//   - error: Error if the database cannot be opened
func NewBadgerBlobStore(ctx context.Context, config BadgerBlobStoreConfig) (*BadgerBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !config.InMemory && config.DBPath == "" {
		return nil, fmt.Errorf("badger store: db_path is required unless in_memory is set")
	}

	// Workspace blobs are a handful of small values: keep caches small and
	// leave compression to the persistence frame.
	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)
	opts = opts.WithSyncWrites(config.SyncWrites)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 16
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerBlobStore{db: db}, nil
}

// Get returns a copy of the value at key.
func (s *BadgerBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put stores value at key.
func (s *BadgerBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// BadgerDB may retain the slice until the transaction commits.
	buf := append(make([]byte, 0, len(value)), value...)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("badger put %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *BadgerBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys starting with prefix. BadgerDB iterates in byte
// order, which is the ascending order Keys promises.
func (s *BadgerBlobStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger keys %q: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the database.
func (s *BadgerBlobStore) Close() error {
	return s.db.Close()
}
