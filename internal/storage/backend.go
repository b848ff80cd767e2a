// Package storage defines the key/value persistence used by the queue and
// settings stores, plus in-memory and file implementations.
//
// Every record is a whole JSON document. Save replaces the record as a unit;
// there are no partial writes.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no record exists under the key.
var ErrNotFound = errors.New("storage: record not found")

// Backend persists opaque records addressed by key.
type Backend interface {
	// Load returns the stored bytes for key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save atomically replaces the record stored under key.
	Save(ctx context.Context, key string, data []byte) error
}
