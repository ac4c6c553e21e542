// Package storage provides the object store the webhook pipeline persists
// event blobs into.
package storage

import (
	"context"
	"errors"
)

// Standard storage errors.
var (
	// ErrNotFound marks a get for a key that does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists marks a put that would overwrite an existing key.
	// Blob keys embed arrival millis, so a collision is a fault rather
	// than something to merge silently.
	ErrKeyExists = errors.New("object key already exists")
)

// ObjectInfo describes a stored object in a listing.
type ObjectInfo struct {
	Key string
}

// ObjectStore is the blob collaborator: immutable puts, bounded listing,
// gets by key.
type ObjectStore interface {
	// Put stores body under key. Keys are write-once; overwriting is an
	// error.
	Put(ctx context.Context, key string, body []byte) error

	// List returns up to maxKeys stored objects.
	List(ctx context.Context, maxKeys int) ([]ObjectInfo, error)

	// Get returns the body stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}
