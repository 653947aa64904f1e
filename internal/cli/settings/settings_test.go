package settings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/hydratemate/internal/cli/clitest"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/reminder"
	"github.com/julianstephens/hydratemate/internal/utils"
)

func ptr[T any](v T) *T { return &v }

func TestGoalCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&GoalCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), utils.FormatAmount(constants.DefaultDailyGoal, constants.UnitsMl))

	require.NoError(t, (&GoalCmd{Goal: "3000"}).Run(env.Ctx))
	assert.Equal(t, 3000, env.Ctx.Engine.State().DailyGoal)
	assert.Contains(t, env.Output(), "Daily goal set")

	require.NoError(t, (&GoalCmd{Goal: "100oz"}).Run(env.Ctx))
	assert.Equal(t, utils.OzToMl(100), env.Ctx.Engine.State().DailyGoal)
}

func TestGoalCmdRejectsOutOfRange(t *testing.T) {
	env := clitest.New(t)

	err := (&GoalCmd{Goal: "100"}).Run(env.Ctx)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, constants.DefaultDailyGoal, env.Ctx.Engine.State().DailyGoal)

	err = (&GoalCmd{Goal: "lots"}).Run(env.Ctx)
	assert.True(t, errors.IsValidation(err))
}

func TestUnitsCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&UnitsCmd{Units: "OZ"}).Run(env.Ctx))
	assert.Equal(t, constants.UnitsOz, env.Ctx.Engine.State().Units)

	require.NoError(t, (&UnitsCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Units: oz")

	err := (&UnitsCmd{Units: "cups"}).Run(env.Ctx)
	assert.True(t, errors.IsValidation(err))
}

func TestRemindersSetCmd(t *testing.T) {
	env := clitest.New(t)

	cmd := &RemindersSetCmd{
		Interval:   ptr(45.0),
		QuietStart: ptr("23:00"),
		QuietEnd:   ptr("7"),
		Smart:      ptr(false),
		Message:    ptr("Sip sip"),
	}
	require.NoError(t, cmd.Run(env.Ctx))

	s := env.Ctx.Engine.State().ReminderSettings
	assert.Equal(t, 45.0, s.IntervalMinutes)
	assert.Equal(t, 23, s.QuietHours.Start)
	assert.Equal(t, 7, s.QuietHours.End)
	assert.False(t, s.SmartReminders)
	assert.Equal(t, "Sip sip", s.CustomMessage)
	assert.Contains(t, env.Output(), "updated successfully")

	require.NoError(t, (&RemindersSetCmd{ClearMessage: true}).Run(env.Ctx))
	assert.Empty(t, env.Ctx.Engine.State().ReminderSettings.CustomMessage)
}

func TestRemindersSetCmdNoFlags(t *testing.T) {
	env := clitest.New(t)
	before := env.Ctx.Engine.State().ReminderSettings

	require.NoError(t, (&RemindersSetCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "No changes specified")
	assert.Equal(t, before, env.Ctx.Engine.State().ReminderSettings)
}

func TestRemindersSetCmdRejectsInvalid(t *testing.T) {
	env := clitest.New(t)

	err := (&RemindersSetCmd{Interval: ptr(0.1)}).Run(env.Ctx)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, constants.DefaultIntervalMinutes, env.Ctx.Engine.State().ReminderSettings.IntervalMinutes)

	err = (&RemindersSetCmd{QuietStart: ptr("25")}).Run(env.Ctx)
	assert.True(t, errors.IsValidation(err))

	env.Output()
	err = (&RemindersSetCmd{Interval: ptr(math.NaN())}).Run(env.Ctx)
	assert.True(t, errors.IsValidation(err))
	assert.NotContains(t, env.Output(), "updated successfully")
	assert.Equal(t, constants.DefaultIntervalMinutes, env.Ctx.Engine.State().ReminderSettings.IntervalMinutes)
}

func TestRemindersOnOff(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&RemindersOffCmd{}).Run(env.Ctx))
	assert.False(t, env.Ctx.Engine.State().ReminderSettings.Enabled)
	assert.Equal(t, reminder.Disabled, env.Ctx.Scheduler.Status().State)
	assert.False(t, env.Ctx.Engine.DeliveryActive())

	require.NoError(t, (&RemindersOnCmd{}).Run(env.Ctx))
	assert.True(t, env.Ctx.Engine.State().ReminderSettings.Enabled)
	assert.True(t, env.Ctx.Engine.DeliveryActive())
	_, ok := env.Ctx.Handoff.Last()
	assert.True(t, ok)
	assert.Contains(t, env.Output(), "Reminders enabled")
}

func TestRemindersOnWithoutPermission(t *testing.T) {
	env := clitest.New(t, func(c *config.Config) { c.Notifications.Enabled = false })

	require.NoError(t, (&RemindersOnCmd{}).Run(env.Ctx))

	assert.True(t, env.Ctx.Engine.State().ReminderSettings.Enabled, "settings are kept")
	assert.False(t, env.Ctx.Engine.DeliveryActive())
	out := env.Output()
	assert.Contains(t, out, "not active")
	assert.Contains(t, out, config.EnvNotifications)
	assert.Empty(t, env.Asked, "no retry is offered for a denied permission")
}

func TestRemindersShowCmd(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&RemindersSetCmd{Message: ptr("Drink up")}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&RemindersShowCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, "Interval:        120 min")
	assert.Contains(t, out, "Quiet Hours:     22:00 - 06:00")
	assert.Contains(t, out, "Custom Message:  Drink up")
	assert.Contains(t, out, "Next Reminder:")
}

func TestRemindersTestCmdDryRun(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&RemindersSetCmd{Message: ptr("Custom nudge")}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&RemindersTestCmd{DryRun: true}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, constants.NotificationTitle)
	assert.Contains(t, out, "Custom nudge")
}
