package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// SetupCmd runs first-launch onboarding. Without flags it asks interactively,
// starting from the current settings.
type SetupCmd struct {
	Units       string   `help:"Display units: ml or oz."`
	Goal        string   `help:"Daily goal, e.g. 2500 or 85oz."`
	Interval    *float64 `help:"Minutes between reminders."`
	NoReminders bool     `help:"Turn reminders off."`
}

func (c *SetupCmd) interactive() bool {
	return c.Units == "" && c.Goal == "" && c.Interval == nil && !c.NoReminders
}

func (c *SetupCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	state := ctx.Engine.State()

	a := setupAnswers{
		Units:     state.Units,
		Goal:      plainAmount(state.DailyGoal, state.Units),
		Reminders: state.ReminderSettings.Enabled,
		Interval:  strconv.FormatFloat(state.ReminderSettings.IntervalMinutes, 'f', -1, 64),
	}
	if c.interactive() {
		ctx.Println(hydration.Greeting(time.Now().In(ctx.Engine.Location()).Hour()) + " Let's set up your hydration goal.")
		if err := promptSetup(&a); err != nil {
			return err
		}
	} else {
		if c.Units != "" {
			u, err := models.ParseUnits(strings.ToLower(c.Units))
			if err != nil {
				return err
			}
			a.Units = u
			a.Goal = plainAmount(state.DailyGoal, u)
		}
		if c.Goal != "" {
			a.Goal = c.Goal
		}
		if c.Interval != nil {
			a.Interval = strconv.FormatFloat(*c.Interval, 'f', -1, 64)
		}
		if c.NoReminders {
			a.Reminders = false
		}
	}

	goal, err := cli.ParseAmount(a.Goal, a.Units)
	if err != nil {
		return err
	}
	interval, err := strconv.ParseFloat(strings.TrimSpace(a.Interval), 64)
	if err != nil {
		return errors.NewValidation("interval", "%q is not a number", a.Interval)
	}
	settings := state.ReminderSettings
	settings.Enabled = a.Reminders
	settings.IntervalMinutes = interval
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := models.ValidateGoal(goal); err != nil {
		return err
	}

	if err := ctx.Engine.UpdateUnits(a.Units); err != nil {
		return err
	}
	if err := ctx.Engine.UpdateGoal(goal); err != nil {
		return err
	}
	if err := ctx.Engine.UpdateReminderSettings(bg, settings); err != nil {
		if !errors.IsScheduling(err) {
			return err
		}
		ctx.Printf("⚠ Reminders are saved but not active yet: %v\n", err)
	}
	if err := ctx.Onboarding.MarkCompleted(bg); err != nil {
		return err
	}

	ctx.Printf("✓ All set! Your daily goal is %s.\n", ctx.FormatAmount(goal))
	if settings.Enabled {
		ctx.Printf("  Reminders every %g min. Start 'hydratemate daemon run' to receive them.\n", settings.IntervalMinutes)
	}
	return nil
}

// plainAmount renders ml as an editable number in units
func plainAmount(ml int, units constants.Units) string {
	if units == constants.UnitsOz {
		return strconv.FormatFloat(utils.MlToOz(ml), 'f', 1, 64)
	}
	return strconv.Itoa(ml)
}

type OnboardingStatusCmd struct{}

func (c *OnboardingStatusCmd) Run(ctx *cli.Context) error {
	if ctx.Onboarding.Completed(context.Background()) {
		ctx.Println("Setup has been completed.")
		return nil
	}
	ctx.Println("Setup has not been completed. Run 'hydratemate setup'.")
	return nil
}

// OnboardingResetCmd clears the completion flag so setup runs again
type OnboardingResetCmd struct{}

func (c *OnboardingResetCmd) Run(ctx *cli.Context) error {
	if err := ctx.Onboarding.Reset(context.Background()); err != nil {
		return fmt.Errorf("failed to reset onboarding: %w", err)
	}
	ctx.Println("✓ Onboarding reset. Run 'hydratemate setup' to go through it again.")
	return nil
}
