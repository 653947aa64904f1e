package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/storage/backends"
	"github.com/julianstephens/hydratemate/internal/statestore"
)

// MigrateCmd applies pending SQL schema migrations, then upgrades the
// stored hydration state to the current document version.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	if m, ok := ctx.Store.(backends.Migrator); ok {
		count, err := m.Migrate(func(msg string) { ctx.Println(msg) })
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if count == 0 {
			ctx.Println("No schema migrations to apply. Database is up to date.")
		} else {
			ctx.Printf("Applied %d schema migration(s).\n", count)
		}
	}

	bg := context.Background()
	doc, report := ctx.State.Load(bg)
	switch {
	case report.Err != nil:
		return fmt.Errorf("stored state could not be read: %w", report.Err)
	case report.Empty:
		ctx.Println("No hydration data stored yet.")
		return nil
	case !report.Migrated:
		ctx.Printf("Hydration data is at version %d, nothing to upgrade.\n", statestore.CurrentVersion)
		return nil
	}

	if err := ctx.State.Save(bg, doc); err != nil {
		return err
	}
	ctx.Printf("Upgraded hydration data from version %d to %d.\n", report.FromVersion, statestore.CurrentVersion)
	if report.BackupKey != "" {
		ctx.Printf("  The original was kept under %q.\n", report.BackupKey)
	}
	for _, d := range report.Discarded {
		ctx.Printf("  ⚠ %v\n", d)
	}
	return nil
}
