package settings

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/notifier"
	"github.com/julianstephens/hydratemate/internal/reminder"
)

type RemindersShowCmd struct{}

func (c *RemindersShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Engine.Flush(context.Background()); err != nil {
		return err
	}
	s := ctx.Engine.State().ReminderSettings
	ctx.Println("Reminder Settings:")
	ctx.Printf("  Enabled:         %v\n", s.Enabled)
	ctx.Printf("  Interval:        %g min\n", s.IntervalMinutes)
	if s.QuietHours.Enabled {
		ctx.Printf("  Quiet Hours:     %02d:00 - %02d:00\n", s.QuietHours.Start, s.QuietHours.End)
	} else {
		ctx.Printf("  Quiet Hours:     off\n")
	}
	ctx.Printf("  Smart Reminders: %v\n", s.SmartReminders)
	if msg := s.Message(); msg != "" {
		ctx.Printf("  Custom Message:  %s\n", msg)
	}

	st := ctx.Scheduler.Status()
	ctx.Printf("\n  Scheduler:       %s\n", st.State)
	if st.State != reminder.Disabled {
		ctx.Printf("  Next Reminder:   %s\n", st.Trigger.In(ctx.Engine.Location()).Format("Mon Jan 2 15:04"))
	}
	if s.Enabled && !ctx.Engine.DeliveryActive() {
		ctx.Println("\n⚠ Reminders are enabled but none is scheduled.")
		if st.LastError != nil {
			ctx.Printf("  %v\n", st.LastError)
		}
	}
	return nil
}

type RemindersSetCmd struct {
	Interval     *float64 `help:"Minutes between reminders (0.5 to 1440)."`
	Quiet        *bool    `help:"Enable or disable quiet hours."`
	QuietStart   *string  `help:"Hour quiet hours begin, e.g. 22 or 22:00."`
	QuietEnd     *string  `help:"Hour quiet hours end, e.g. 6 or 06:00."`
	Smart        *bool    `help:"Enable or disable smart reminders."`
	Message      *string  `help:"Custom reminder message."`
	ClearMessage bool     `help:"Remove the custom message."`
}

func (c *RemindersSetCmd) Run(ctx *cli.Context) error {
	s := ctx.Engine.State().ReminderSettings
	updated := false

	if c.Interval != nil {
		s.IntervalMinutes = *c.Interval
		updated = true
	}
	if c.Quiet != nil {
		s.QuietHours.Enabled = *c.Quiet
		updated = true
	}
	if c.QuietStart != nil {
		h, err := cli.ParseHour(*c.QuietStart)
		if err != nil {
			return err
		}
		s.QuietHours.Start = h
		updated = true
	}
	if c.QuietEnd != nil {
		h, err := cli.ParseHour(*c.QuietEnd)
		if err != nil {
			return err
		}
		s.QuietHours.End = h
		updated = true
	}
	if c.Smart != nil {
		s.SmartReminders = *c.Smart
		updated = true
	}
	if c.Message != nil {
		s.CustomMessage = *c.Message
		updated = true
	}
	if c.ClearMessage {
		s.CustomMessage = ""
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use 'hydratemate settings reminders show' to view settings or flags to update them.")
		return nil
	}
	if err := apply(ctx, s); err != nil {
		return err
	}
	ctx.Println("Reminder settings updated successfully.")
	return nil
}

type RemindersOnCmd struct{}

func (c *RemindersOnCmd) Run(ctx *cli.Context) error {
	s := ctx.Engine.State().ReminderSettings
	s.Enabled = true
	if err := apply(ctx, s); err != nil {
		return err
	}
	ctx.Println("✓ Reminders enabled")
	return nil
}

type RemindersOffCmd struct{}

func (c *RemindersOffCmd) Run(ctx *cli.Context) error {
	s := ctx.Engine.State().ReminderSettings
	s.Enabled = false
	if err := apply(ctx, s); err != nil {
		return err
	}
	ctx.Println("✓ Reminders disabled")
	return nil
}

// apply stores settings. A scheduling failure is not an error for the
// command: the settings were saved, the user is told reminders are not
// active and offered a retry.
func apply(ctx *cli.Context, s models.ReminderSettings) error {
	err := ctx.Engine.UpdateReminderSettings(context.Background(), s)
	if err == nil || !errors.IsScheduling(err) {
		return err
	}

	ctx.Printf("⚠ Settings saved, but reminders are not active: %v\n", err)
	if stderrors.Is(err, errors.ErrPermissionDenied) {
		ctx.Printf("  Notifications are disabled. Set notifications.enabled: true in %s\n", configPath(ctx))
		ctx.Printf("  or export %s=true, then run 'hydratemate settings reminders on'.\n", config.EnvNotifications)
		return nil
	}

	retry, cerr := ctx.Confirm("Try scheduling again?", "The reminder could not be scheduled.")
	if cerr != nil || !retry {
		return nil
	}
	if err := ctx.Engine.StartReminders(context.Background()); err != nil {
		ctx.Printf("⚠ Still not scheduled: %v\n", err)
		return nil
	}
	ctx.Println("✓ Reminder scheduled")
	return nil
}

func configPath(ctx *cli.Context) string {
	if p := ctx.Config.Path(); p != "" {
		return p
	}
	return config.DefaultPath()
}

type RemindersTestCmd struct {
	DryRun bool `help:"Print the notification instead of sending it."`
}

func (c *RemindersTestCmd) Run(ctx *cli.Context) error {
	in := ctx.Engine.ReminderInput()
	n := reminder.Notification{
		Title: constants.NotificationTitle,
		Body:  reminder.Message(in.Settings, in.Progress, nil),
	}

	var d notifier.Deliverer = notifier.NewLogDeliverer(ctx.Out)
	if !c.DryRun && ctx.Config.Notifications.Tray {
		d = notifier.Fallback{notifier.NewTrayDeliverer(), d}
	}
	if err := d.Deliver(context.Background(), n); err != nil {
		return fmt.Errorf("failed to send test notification: %w", err)
	}
	return nil
}
