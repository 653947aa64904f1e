package statestore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/storage"
)

// LoadReport describes what Load found
type LoadReport struct {
	// Empty is set when nothing was stored yet
	Empty bool
	// FromVersion is the schema version read from storage (0 when Empty or
	// unreadable)
	FromVersion int
	// Migrated is set when the stored document was upgraded or repaired and
	// should be written back
	Migrated bool
	// BackupKey names the key holding the original blob, if one was written
	BackupKey string
	// Discarded lists subsets that could not be read and were defaulted
	Discarded []*errors.MigrationError
	// Err is set when defaults were used because storage failed or the blob
	// could not be decoded at all
	Err error
}

// NeedsSave reports whether the loaded state should be persisted right away
func (r LoadReport) NeedsSave() bool {
	return r.Migrated && r.Err == nil
}

// Store persists the hydration state blob in a key-value backend
type Store struct {
	provider storage.Provider
	key      string
}

func New(provider storage.Provider) *Store {
	return &Store{provider: provider, key: constants.StateStorageKey}
}

// Provider returns the underlying backend
func (s *Store) Provider() storage.Provider {
	return s.provider
}

// Refresh asks the backend to re-read its data, for backends that cache
// (the JSON file store).
func (s *Store) Refresh() error {
	return s.provider.Load()
}

// Save writes the durable subset of the state
func (s *Store) Save(ctx context.Context, state StateV2) error {
	state.DataVersion = CurrentVersion
	data, err := json.Marshal(state)
	if err != nil {
		return &errors.PersistenceError{Op: "save", Key: s.key, Err: err}
	}
	if err := s.provider.Set(ctx, s.key, string(data)); err != nil {
		return &errors.PersistenceError{Op: "save", Key: s.key, Err: err}
	}
	return nil
}

// Load reads, decodes and migrates the stored state. It never fails: on an
// empty store, a backend error or an unreadable blob it returns defaults
// and says why in the report. Unreadable and legacy blobs are copied to a
// backup key before anything can overwrite them.
func (s *Store) Load(ctx context.Context) (StateV2, LoadReport) {
	var report LoadReport

	raw, err := s.provider.Get(ctx, s.key)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			report.Empty = true
			return DefaultStateV2(), report
		}
		report.Err = &errors.PersistenceError{Op: "load", Key: s.key, Err: err}
		logger.Error("Failed to read stored state, using defaults", "error", err)
		return DefaultStateV2(), report
	}

	doc, discarded, err := Decode([]byte(raw))
	if err != nil {
		report.Err = err
		version := 0
		if stderrors.Is(err, ErrFutureVersion) {
			version = peekVersion(raw)
		}
		report.BackupKey = s.backup(ctx, raw, version)
		logger.Error("Stored state is unreadable, using defaults", "error", err, "backup", report.BackupKey)
		return DefaultStateV2(), report
	}

	report.FromVersion = doc.SchemaVersion()
	state, migrationErrs := Migrate(doc)
	report.Discarded = append(discarded, migrationErrs...)
	for _, d := range report.Discarded {
		logger.Warn("Discarded unreadable state subset", "subset", d.Subset, "error", d.Err)
	}

	if report.FromVersion < CurrentVersion || len(report.Discarded) > 0 {
		report.Migrated = true
		report.BackupKey = s.backup(ctx, raw, report.FromVersion)
		if report.BackupKey == "" {
			// without a copy of the original, keep it in place
			report.Migrated = false
		}
		logger.Info("Migrated stored state", "from", report.FromVersion, "to", CurrentVersion, "discarded", len(report.Discarded))
	}
	return state, report
}

func (s *Store) backup(ctx context.Context, raw string, version int) string {
	key := fmt.Sprintf(constants.StateBackupKeyPattern, version)
	if err := s.provider.Set(ctx, key, raw); err != nil {
		logger.Error("Failed to back up stored state", "key", key, "error", err)
		return ""
	}
	return key
}

func peekVersion(raw string) int {
	var probe struct {
		DataVersion float64 `json:"dataVersion"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return 0
	}
	return int(probe.DataVersion)
}
