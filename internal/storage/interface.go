package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value
	ErrNotFound = errors.New("key not found")
	// ErrNotInitialized is returned by Load when the backend has not been
	// created with Init
	ErrNotInitialized = errors.New("storage not initialized, run 'hydratemate init' first")
)

// Provider is a string key-value backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error

	// GetConfigPath returns the backing file path, or a non-sensitive
	// identifier for network backends.
	GetConfigPath() string
}
