package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/dittows/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a conformance suite for BlobStore implementations.
// It tests the interface contract, not implementation details, so every
// backend (memory, badger, filesystem, S3) runs the same checks.
//
// Usage:
//
//	func TestMyBlobStore(t *testing.T) {
//	    suite := &storetest.StoreTestSuite{
//	        NewStore: func(t *testing.T) store.BlobStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. The suite
	// closes the store when the test ends.
	NewStore func(t *testing.T) store.BlobStore

	// SkipCancellation skips the cancelled-context checks for backends
	// that delegate cancellation entirely to a remote client.
	SkipCancellation bool
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("PutGet", suite.testPutGet)
	t.Run("Put_Overwrite", suite.testPutOverwrite)
	t.Run("Put_EmptyValue", suite.testPutEmpty)
	t.Run("Put_BinaryValue", suite.testPutBinary)
	t.Run("Isolation_CallerBuffers", suite.testBufferIsolation)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_Missing", suite.testDeleteMissing)
	t.Run("Keys_Prefix", suite.testKeysPrefix)
	t.Run("Keys_Empty", suite.testKeysEmpty)
	t.Run("Keys_UnusualCharacters", suite.testKeysUnusual)
	t.Run("Concurrent_Puts", suite.testConcurrentPuts)
	if !suite.SkipCancellation {
		t.Run("CancelledContext", suite.testCancelledContext)
	}
}

func (suite *StoreTestSuite) open(t *testing.T) store.BlobStore {
	t.Helper()
	s := suite.NewStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ctx() context.Context {
	return context.Background()
}

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	s := suite.open(t)

	_, err := s.Get(ctx(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrBlobNotFound), "got %v", err)
}

func (suite *StoreTestSuite) testPutGet(t *testing.T) {
	s := suite.open(t)

	require.NoError(t, s.Put(ctx(), "k", []byte("hello")))
	got, err := s.Get(ctx(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func (suite *StoreTestSuite) testPutOverwrite(t *testing.T) {
	s := suite.open(t)

	require.NoError(t, s.Put(ctx(), "k", []byte("first value")))
	require.NoError(t, s.Put(ctx(), "k", []byte("2nd")))

	got, err := s.Get(ctx(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("2nd"), got)
}

func (suite *StoreTestSuite) testPutEmpty(t *testing.T) {
	s := suite.open(t)

	require.NoError(t, s.Put(ctx(), "empty", []byte{}))
	got, err := s.Get(ctx(), "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	keys, err := s.Keys(ctx(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, keys)
}

func (suite *StoreTestSuite) testPutBinary(t *testing.T) {
	s := suite.open(t)

	value := make([]byte, 64*1024)
	for i := range value {
		value[i] = byte(i * 31)
	}
	require.NoError(t, s.Put(ctx(), "bin", value))

	got, err := s.Get(ctx(), "bin")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(value, got))
}

func (suite *StoreTestSuite) testBufferIsolation(t *testing.T) {
	s := suite.open(t)

	value := []byte("original")
	require.NoError(t, s.Put(ctx(), "k", value))
	value[0] = 'X'

	got, err := s.Get(ctx(), "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, err := s.Get(ctx(), "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	s := suite.open(t)

	require.NoError(t, s.Put(ctx(), "a", []byte("1")))
	require.NoError(t, s.Put(ctx(), "b", []byte("2")))
	require.NoError(t, s.Delete(ctx(), "a"))

	_, err := s.Get(ctx(), "a")
	assert.ErrorIs(t, err, store.ErrBlobNotFound)

	got, err := s.Get(ctx(), "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func (suite *StoreTestSuite) testDeleteMissing(t *testing.T) {
	s := suite.open(t)
	assert.NoError(t, s.Delete(ctx(), "never-written"))
}

func (suite *StoreTestSuite) testKeysPrefix(t *testing.T) {
	s := suite.open(t)

	for _, k := range []string{"app_v1_settings", "app_v1_files", "other_files", "app_v1_auth"} {
		require.NoError(t, s.Put(ctx(), k, []byte(k)))
	}

	keys, err := s.Keys(ctx(), "app_v1_")
	require.NoError(t, err)
	assert.Equal(t, []string{"app_v1_auth", "app_v1_files", "app_v1_settings"}, keys)

	all, err := s.Keys(ctx(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func (suite *StoreTestSuite) testKeysEmpty(t *testing.T) {
	s := suite.open(t)

	keys, err := s.Keys(ctx(), "nothing_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func (suite *StoreTestSuite) testKeysUnusual(t *testing.T) {
	s := suite.open(t)

	unusual := []string{"a/b", "with space", "percent%41", ".hidden"}
	for _, k := range unusual {
		require.NoError(t, s.Put(ctx(), k, []byte(k)), "key %q", k)
	}
	for _, k := range unusual {
		got, err := s.Get(ctx(), k)
		require.NoError(t, err, "key %q", k)
		assert.Equal(t, k, string(got))
	}

	keys, err := s.Keys(ctx(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, unusual, keys)
}

func (suite *StoreTestSuite) testConcurrentPuts(t *testing.T) {
	s := suite.open(t)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, s.Put(ctx(), key, []byte(key)))
			assert.NoError(t, s.Put(ctx(), "shared", []byte(key)))
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys(ctx(), "key-")
	require.NoError(t, err)
	assert.Len(t, keys, workers)

	shared, err := s.Get(ctx(), "shared")
	require.NoError(t, err)
	assert.Contains(t, keys, string(shared))
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	s := suite.open(t)

	cancelled, cancel := context.WithCancel(ctx())
	cancel()

	_, err := s.Get(cancelled, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(cancelled, "k", []byte("v")), context.Canceled)
	assert.ErrorIs(t, s.Delete(cancelled, "k"), context.Canceled)
	_, err = s.Keys(cancelled, "")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Get(ctx(), "k")
	assert.ErrorIs(t, err, store.ErrBlobNotFound, "cancelled Put must not write")
}
