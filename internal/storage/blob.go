package storage

import (
	"context"
	"errors"
	"io"
)

var ErrEmptyKey = errors.New("storage: empty key")

// BlobStore keeps finished export files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}
