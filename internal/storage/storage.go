package storage

import (
	"context"
	"io"
)

// Storage defines the interface for product image blob operations.
type Storage interface {
	// Put stores a blob under the given key and returns its key and URL.
	Put(ctx context.Context, input *PutInput) (*PutResult, error)

	// Delete removes a blob by its key. Deleting a missing key is an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the public URL for the given key.
	URL(key string) string
}

// PutInput holds the parameters for storing a blob.
type PutInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// PutResult holds the result of a successful store.
type PutResult struct {
	Key string
	URL string
}
