package storage

import (
	"context"
	"io"
)

// BlobStorage defines the object-storage operations the pipeline needs for
// attachment bytes. Keys are always pipeline-generated; untrusted filenames
// never reach this layer.
type BlobStorage interface {
	// Upload stores an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an object. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the externally reachable URL for a stored object.
	GetURL(key string) string

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
