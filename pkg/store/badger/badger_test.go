package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittows/pkg/store"
	storetest "github.com/marmos91/dittows/pkg/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerBlobStore(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.BlobStore {
			s, err := NewBadgerBlobStore(context.Background(), BadgerBlobStoreConfig{
				DBPath: t.TempDir(),
			})
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func TestBadgerBlobStore_InMemory(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.BlobStore {
			s, err := NewBadgerBlobStore(context.Background(), BadgerBlobStoreConfig{InMemory: true})
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func TestBadgerBlobStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewBadgerBlobStore(ctx, BadgerBlobStoreConfig{DBPath: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "persisted", []byte("value")))
	require.NoError(t, s.Close())

	s, err = NewBadgerBlobStore(ctx, BadgerBlobStoreConfig{DBPath: dir})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestNewBadgerBlobStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerBlobStore(context.Background(), BadgerBlobStoreConfig{})
	assert.Error(t, err)
}
