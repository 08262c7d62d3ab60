package filestorage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a key has no stored object.
var ErrObjectNotFound = errors.New("stored object not found")

// ObjectInfo describes an object written to a BlobStore.
type ObjectInfo struct {
	Key    string // Storage key the object was written under
	Size   int64  // Bytes written
	Digest string // Hex blake3 digest of the content
}

// BlobStore abstracts the external store that holds uploaded documents.
type BlobStore interface {
	// Put streams r into the store under key and reports its size and digest.
	Put(ctx context.Context, key string, r io.Reader) (*ObjectInfo, error)

	// Get opens the object stored under key. Callers must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close(ctx context.Context) error
}
