package memory

import (
	"testing"

	"github.com/marmos91/dittows/pkg/store"
	storetest "github.com/marmos91/dittows/pkg/store/testing"
)

func TestMemoryBlobStore(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.BlobStore {
			return NewMemoryBlobStore()
		},
	}
	suite.Run(t)
}
