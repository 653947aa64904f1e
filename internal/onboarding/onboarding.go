// Package onboarding records whether the first-run setup has been completed.
package onboarding

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/storage"
)

const completedValue = "true"

// Tracker reads and writes the onboarding flag in a key-value backend
type Tracker struct {
	kv storage.Provider
}

func New(kv storage.Provider) *Tracker {
	return &Tracker{kv: kv}
}

// Migrate copies the legacy flag to the current key and removes it. It does
// nothing once the current key exists. Failures are logged and returned,
// but the application keeps working with the flag unset.
func (t *Tracker) Migrate(ctx context.Context) error {
	if _, err := t.kv.Get(ctx, constants.OnboardingKey); err == nil {
		return nil
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return t.fail("migrate", constants.OnboardingKey, err)
	}

	legacy, err := t.kv.Get(ctx, constants.LegacyOnboardingKey)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return t.fail("migrate", constants.LegacyOnboardingKey, err)
	}

	if err := t.kv.Set(ctx, constants.OnboardingKey, legacy); err != nil {
		return t.fail("migrate", constants.OnboardingKey, err)
	}
	if err := t.kv.Remove(ctx, constants.LegacyOnboardingKey); err != nil {
		logger.Warn("Failed to remove legacy onboarding flag", "error", err)
	}
	logger.Info("Migrated onboarding flag", "from", constants.LegacyOnboardingKey, "to", constants.OnboardingKey)
	return nil
}

// Completed reports whether onboarding has finished. Read failures count
// as not completed.
func (t *Tracker) Completed(ctx context.Context) bool {
	v, err := t.kv.Get(ctx, constants.OnboardingKey)
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to read onboarding flag", "error", err)
		}
		return false
	}
	return v == completedValue
}

func (t *Tracker) MarkCompleted(ctx context.Context) error {
	if err := t.kv.Set(ctx, constants.OnboardingKey, completedValue); err != nil {
		return t.fail("save", constants.OnboardingKey, err)
	}
	return nil
}

// Reset clears the flag so setup runs again
func (t *Tracker) Reset(ctx context.Context) error {
	err := t.kv.Remove(ctx, constants.OnboardingKey)
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return t.fail("reset", constants.OnboardingKey, err)
	}
	return nil
}

func (t *Tracker) fail(op, key string, err error) error {
	logger.Warn("Onboarding flag "+op+" failed", "key", key, "error", err)
	return &errors.PersistenceError{Op: op, Key: key, Err: fmt.Errorf("onboarding: %w", err)}
}
