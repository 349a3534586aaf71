// Package fs implements a blob store that keeps one file per key.
//
// Files are accessed through an afero.Fs, so the same code runs against
// the OS filesystem in production and an in-memory filesystem in tests.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/marmos91/dittows/pkg/store"
	"github.com/spf13/afero"
)

const (
	blobDir = "blobs"
	tempDir = "tmp"
)

// FSBlobStore implements store.BlobStore on a filesystem.
//
// Layout under BasePath:
//
//	blobs/<escaped key>   one file per blob
//	tmp/                  staging area for in-flight writes
//
// Writes go to a temp file first and are renamed into place, so a reader
// sees either the previous value or the new one, never a torn write.
//
// Thread Safety:
// Concurrent Puts to the same key are last-rename-wins; the filesystem
// provides the atomicity.
type FSBlobStore struct {
	fs       afero.Fs
	basePath string
}

var _ store.BlobStore = (*FSBlobStore)(nil)

// FSBlobStoreConfig configures an FSBlobStore.
type FSBlobStoreConfig struct {
	// BasePath is the directory holding the store
	BasePath string `mapstructure:"path"`

	// DirMode is the permission used for created directories (default 0755)
	DirMode uint32 `mapstructure:"dir_mode"`
}

// NewFSBlobStore creates the directory layout under config.BasePath on
// fsys and returns a store using it.
//
// Parameters:
//   - ctx: Context for cancellation (checked before touching the filesystem)
//   - fsys: Filesystem to use (afero.NewOsFs() in production)
//   - config: Store location
//
// Returns:
//   - *FSBlobStore: Store ready for use
//   - error: Error if the directories cannot be created
func NewFSBlobStore(ctx context.Context, fsys afero.Fs, config FSBlobStoreConfig) (*FSBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.BasePath == "" {
		return nil, fmt.Errorf("filesystem store: path is required")
	}

	mode := fs.FileMode(config.DirMode)
	if mode == 0 {
		mode = 0755
	}
	for _, dir := range []string{blobDir, tempDir} {
		if err := fsys.MkdirAll(path.Join(config.BasePath, dir), mode); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &FSBlobStore{fs: fsys, basePath: config.BasePath}, nil
}

// keyPath maps a key to its file. Keys are path-escaped so any string is
// a single safe file name.
func (s *FSBlobStore) keyPath(key string) string {
	name := url.PathEscape(key)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return path.Join(s.basePath, blobDir, name)
}

// Get reads the file for key.
func (s *FSBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.keyPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %q: %w", key, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Put writes value to a temp file and renames it over the key's file.
func (s *FSBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, path.Join(s.basePath, tempDir), "put-*")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("sync blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close blob %q: %w", key, err)
	}

	if err := s.fs.Rename(tmpName, s.keyPath(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("commit blob %q: %w", key, err)
	}
	return nil
}

// Delete removes the key's file.
func (s *FSBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.fs.Remove(s.keyPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys starting with prefix.
func (s *FSBlobStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, path.Join(s.basePath, blobDir))
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			// Not written by this store.
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op; no file handles are held between calls.
func (s *FSBlobStore) Close() error {
	return nil
}
