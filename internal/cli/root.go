package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hydratemate/internal/backup"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/notifier"
	"github.com/julianstephens/hydratemate/internal/onboarding"
	"github.com/julianstephens/hydratemate/internal/reminder"
	"github.com/julianstephens/hydratemate/internal/statestore"
	"github.com/julianstephens/hydratemate/internal/storage"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// ConfirmFunc asks the user a yes/no question
type ConfirmFunc func(title, description string) (bool, error)

// Context is passed to every command's Run method
type Context struct {
	Config     *config.Config
	Store      storage.Provider
	State      *statestore.Store
	Engine     *hydration.Engine
	Scheduler  *reminder.Scheduler
	Handoff    *notifier.HandoffDispatcher
	Onboarding *onboarding.Tracker

	Out     io.Writer
	Confirm ConfirmFunc
}

// NewContext wires the engine for a short-lived command. Reminders are
// computed here and handed to the daemon through storage.
func NewContext(cfg *config.Config, kv storage.Provider, opts ...hydration.Option) *Context {
	handoff := notifier.NewHandoffDispatcher(cfg.Notifications.Enabled)
	sched := reminder.New(handoff,
		reminder.WithLocation(cfg.Location()),
		reminder.WithPlatform(cfg.Platform),
	)
	state := statestore.New(kv)
	opts = append([]hydration.Option{hydration.WithLocation(cfg.Location())}, opts...)

	return &Context{
		Config:     cfg,
		Store:      kv,
		State:      state,
		Engine:     hydration.New(state, sched, opts...),
		Scheduler:  sched,
		Handoff:    handoff,
		Onboarding: onboarding.New(kv),
		Out:        os.Stdout,
		Confirm:    HuhConfirm,
	}
}

// Open loads the stored state into the engine and migrates the onboarding
// flag. Load problems are reported but never fatal.
func (c *Context) Open(ctx context.Context) statestore.LoadReport {
	if err := c.Onboarding.Migrate(ctx); err != nil {
		logger.Warn("Onboarding flag migration failed", "error", err)
	}
	report := c.Engine.Init(ctx)
	for _, d := range report.Discarded {
		logger.Warn("Discarded unreadable stored data", "subset", d.Subset, "error", d.Err)
	}
	if report.Err != nil {
		fmt.Fprintf(os.Stderr, "Warning: stored data could not be read, starting from defaults (%v)\n", report.Err)
	}
	return report
}

// Close waits for pending writes and releases the backend
func (c *Context) Close(ctx context.Context) error {
	var errs []error
	if c.Engine != nil {
		if err := c.Engine.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Units returns the display unit preference
func (c *Context) Units() constants.Units {
	return c.Engine.State().Units
}

// FormatAmount renders ml in the user's display units
func (c *Context) FormatAmount(ml int) string {
	return utils.FormatAmount(ml, c.Units())
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	path := c.Store.GetConfigPath()
	if !backup.Supported(path) {
		return
	}
	if err := c.Engine.Flush(context.Background()); err != nil {
		logger.Warn("Failed to flush pending writes before backup", "error", err)
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// HuhConfirm shows an interactive confirmation
func HuhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ParseAmount reads an intake amount. A trailing "ml" or "oz" overrides
// the display units: "250", "250ml", "8oz", "8.5 oz".
func ParseAmount(s string, units constants.Units) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(v, "ml"):
		units = constants.UnitsMl
		v = strings.TrimSpace(strings.TrimSuffix(v, "ml"))
	case strings.HasSuffix(v, "oz"):
		units = constants.UnitsOz
		v = strings.TrimSpace(strings.TrimSuffix(v, "oz"))
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.NewValidation("amount", "%q is not a number", s)
	}
	if f <= 0 {
		return 0, errors.NewValidation("amount", "must be greater than 0")
	}
	if units == constants.UnitsOz {
		return utils.OzToMl(f), nil
	}
	return int(f + 0.5), nil
}

// ParseHour reads an hour of day given as "22" or "22:00"
func ParseHour(s string) (int, error) {
	v := strings.TrimSpace(s)
	if h, m, ok := strings.Cut(v, ":"); ok {
		if m != "00" {
			return 0, errors.NewValidation("hour", "%q must be on the hour", s)
		}
		v = h
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return 0, errors.NewValidation("hour", "%q must be between 0 and 23", s)
	}
	return h, nil
}

// LargeIntake reports whether an amount should be confirmed first. The
// limit follows the display units so oz users see a round number.
func LargeIntake(ml int, units constants.Units) bool {
	if units == constants.UnitsOz {
		return utils.MlToOz(ml) > constants.LargeIntakeSoftLimitOz
	}
	return ml > constants.LargeIntakeSoftLimit
}
