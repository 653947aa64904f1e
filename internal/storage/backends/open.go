// Package backends resolves a storage location string to a concrete
// key-value backend.
package backends

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/hydratemate/internal/keyring"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/storage"
	"github.com/julianstephens/hydratemate/internal/storage/postgres"
	"github.com/julianstephens/hydratemate/internal/storage/sqlite"
)

// MemoryDSN selects the in-process backend
const MemoryDSN = "memory://"

// KeyringDSN selects the PostgreSQL connection string stored in the OS keyring
const KeyringDSN = "keyring://"

// getConnectionString is a seam for tests
var getConnectionString = keyring.GetConnectionString

// Open returns the backend for location. Locations are a PostgreSQL
// connection string, memory://, keyring://, a path ending in .json, or any
// other path, which is opened as SQLite. The caller runs Init or Load.
func Open(location string) (storage.Provider, error) {
	switch {
	case location == MemoryDSN:
		return storage.NewMemoryStore(), nil

	case location == KeyringDSN:
		connStr, err := getConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, use 'hydratemate keyring set' to store one")
			}
			return nil, err
		}
		// secrets in the keyring may embed a password
		if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr), nil

	case postgres.IsConnString(location):
		if _, err := postgres.ValidateConnString(location); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: use the OS keyring (hydratemate keyring set), PGPASSWORD or .pgpass instead", err)
			}
			return nil, err
		}
		return postgres.New(location), nil

	case strings.HasSuffix(strings.ToLower(location), ".json"):
		logger.Debug("Using JSON storage", "path", location)
		return storage.NewJSONStore(location), nil

	case strings.TrimSpace(location) == "":
		return nil, fmt.Errorf("storage location cannot be empty")

	default:
		return sqlite.NewStore(location), nil
	}
}

// Migrator is implemented by backends with a versioned SQL schema
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
}
