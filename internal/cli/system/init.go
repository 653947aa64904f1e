package system

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/hydratemate/internal/backup"
	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/storage"
	"github.com/julianstephens/hydratemate/internal/storage/backends"
)

// migratedKeys are copied from a source backend by init --source
var migratedKeys = []string{
	constants.StateStorageKey,
	constants.OnboardingKey,
	constants.LegacyOnboardingKey,
}

type InitCmd struct {
	Force  bool   `help:"Delete the existing local storage file before initialization."`
	Source string `help:"Storage path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()

	if c.Force {
		if !backup.Supported(path) {
			return fmt.Errorf("--force only applies to local storage files, not %q", path)
		}
		if c.Source != "" && samePath(path, c.Source) {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
		if _, err := os.Stat(path); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing storage: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing storage: %w", err)
			}
			ctx.Printf("Deleted existing storage at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing storage: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, path)

	if err := writeDefaultConfig(ctx); err != nil {
		return err
	}

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		n, err := c.copyFrom(context.Background(), ctx.Store)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("Copied %d key(s). Migration completed successfully!\n", n)
	}
	return nil
}

// writeDefaultConfig saves the running configuration when no config file
// exists yet, so later edits have something to start from.
func writeDefaultConfig(ctx *cli.Context) error {
	path := ctx.Config.Path()
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := config.Save(path, ctx.Config); err != nil {
		return err
	}
	ctx.Printf("Wrote configuration to: %s\n", path)
	return nil
}

func (c *InitCmd) copyFrom(ctx context.Context, dst storage.Provider) (int, error) {
	src, err := backends.Open(c.Source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source storage: %w", err)
	}
	defer src.Close()

	copied := 0
	for _, key := range migratedKeys {
		value, err := src.Get(ctx, key)
		if stderrors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("failed to read %s from source: %w", key, err)
		}
		if err := dst.Set(ctx, key, value); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
