package system

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/hydratemate/internal/backup"
	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/daemon"
	"github.com/julianstephens/hydratemate/internal/keyring"
	"github.com/julianstephens/hydratemate/internal/statestore"
	"github.com/julianstephens/hydratemate/internal/storage"
	"github.com/julianstephens/hydratemate/internal/storage/sqlite"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// warning marks a check whose failure is reported but not fatal
type warning struct{ error }

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	check := func(name string, err error) {
		switch e := err.(type) {
		case nil:
			ctx.Printf("✓ %s: OK\n", name)
		case warning:
			ctx.Printf("⚠ %s: WARNING\n", name)
			ctx.Printf("   %v\n", e.error)
		default:
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}
	skip := func(name string) {
		ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", name)
	}

	reachable := checkStorageReachable(ctx)
	check("Storage reachable", reachable)
	if reachable == nil {
		check("Schema version", checkSchemaVersion(ctx))
		check("Hydration data", checkStateBlob(ctx))
	} else {
		skip("Schema version")
		skip("Hydration data")
	}

	check("Backups present", checkBackupsPresent(ctx))
	check("Clock/timezone", checkClockTimezone(ctx))
	check("Keyring", checkKeyring())
	check("Daemon", checkDaemon(ctx))

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	s, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return nil
	}
	current, latest, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'hydratemate migrate')", current, latest)
	}
	return nil
}

// checkStateBlob decodes the stored state without writing anything back
func checkStateBlob(ctx *cli.Context) error {
	raw, err := ctx.Store.Get(context.Background(), constants.StateStorageKey)
	if stderrors.Is(err, storage.ErrNotFound) {
		return warning{fmt.Errorf("no hydration data stored yet")}
	}
	if err != nil {
		return fmt.Errorf("failed to read stored state: %w", err)
	}

	doc, discarded, err := statestore.Decode([]byte(raw))
	if err != nil {
		return fmt.Errorf("stored state is unreadable, defaults will be used: %w", err)
	}
	_, migrationErrs := statestore.Migrate(doc)
	discarded = append(discarded, migrationErrs...)
	if len(discarded) > 0 {
		return warning{fmt.Errorf("%d unreadable part(s) will be reset to defaults, first: %v", len(discarded), discarded[0])}
	}
	if v := doc.SchemaVersion(); v < statestore.CurrentVersion {
		return warning{fmt.Errorf("data is at version %d, run 'hydratemate migrate' to upgrade to %d", v, statestore.CurrentVersion)}
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	if !backup.Supported(path) {
		return nil
	}
	infos, err := backup.NewManager(path).List()
	if err != nil {
		return warning{fmt.Errorf("failed to list backups: %w", err)}
	}
	if len(infos) == 0 {
		return warning{fmt.Errorf("no backups found, consider creating one with 'hydratemate backup create'")}
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation(ctx.Config.Timezone); err != nil {
		return err
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return warning{fmt.Errorf("OS keyring is not available, keyring:// storage and sign-in cannot be used")}
	}
	return nil
}

func checkDaemon(ctx *cli.Context) error {
	_, running, err := daemon.Status(daemon.PIDFilePath(ctx.Config.Dir()))
	if err != nil {
		return warning{err}
	}
	if !running {
		return warning{fmt.Errorf("not running, reminders will not be delivered (start it with 'hydratemate daemon run')")}
	}
	return nil
}
