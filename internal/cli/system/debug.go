package system

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/storage"
)

type DebugCmd struct {
	DBPath *DebugDBPathCmd `cmd:"" help:"Show storage path."`
	Dump   *DebugDumpCmd   `cmd:"" help:"Dump a stored value as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	// Output in machine-readable format
	output := map[string]string{
		"path": ctx.Store.GetConfigPath(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDumpCmd struct {
	Key string `arg:"" optional:"" help:"Storage key to dump (defaults to the hydration state)."`
}

func (cmd *DebugDumpCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	key := cmd.Key
	if key == "" {
		key = constants.StateStorageKey
	}

	raw, err := ctx.Store.Get(context.Background(), key)
	if stderrors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no value stored under %q", key)
	}
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", key, err)
	}

	// Values that are not JSON (plain flags) are printed as-is
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		ctx.Println(raw)
		return nil
	}
	ctx.Println(buf.String())
	return nil
}
