package intake

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/daemon"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/reminder"
)

const barWidth = 36

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	// the first reminder pass runs on the effect queue
	if err := ctx.Engine.Flush(context.Background()); err != nil {
		return err
	}
	now := time.Now().In(ctx.Engine.Location())
	state := ctx.Engine.State()
	pct := ctx.Engine.ProgressPercentage()
	m := hydration.MotivationFor(pct)

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))

	rows := []string{
		titleStyle.Render(hydration.Greeting(now.Hour())),
		"",
		bar.ViewAs(pct / 100),
		"",
		row("Today", fmt.Sprintf("%s / %s (%d%%)",
			ctx.FormatAmount(state.CurrentIntake), ctx.FormatAmount(state.DailyGoal), int(math.Round(pct)))),
		row("Remaining", ctx.FormatAmount(ctx.Engine.Remaining())),
		row("Level", string(hydration.LevelFor(pct))),
		row("Streak", fmt.Sprintf("%d day(s)", ctx.Engine.Streak())),
		row("Weekly average", ctx.FormatAmount(ctx.Engine.WeeklyAverage())),
		row("Reminders", reminderLine(ctx)),
		row("Daemon", daemonLine(ctx)),
		"",
		fmt.Sprintf("%s %s", m.Emoji, valueStyle.Render(m.Title)),
		mutedStyle.Render(m.Subtitle),
	}

	if pct < 100 {
		var amounts []string
		for _, ml := range hydration.QuickAddSuggestions(now.Hour()) {
			amounts = append(amounts, ctx.FormatAmount(ml))
		}
		rows = append(rows, "", mutedStyle.Render("Quick add: "+strings.Join(amounts, " · ")))
	}

	ctx.Println(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return nil
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func reminderLine(ctx *cli.Context) string {
	settings := ctx.Engine.State().ReminderSettings
	if !settings.Enabled {
		return "off"
	}
	st := ctx.Scheduler.Status()
	switch st.State {
	case reminder.Scheduled, reminder.QuietSuppressed:
		line := fmt.Sprintf("every %g min, next at %s", settings.IntervalMinutes, st.Trigger.In(ctx.Engine.Location()).Format("Mon 15:04"))
		if st.State == reminder.QuietSuppressed {
			line += " (after quiet hours)"
		}
		return line
	default:
		if st.LastError != nil {
			return warnStyle.Render("enabled but not scheduled: " + st.LastError.Error())
		}
		return warnStyle.Render("enabled but not scheduled")
	}
}

func daemonLine(ctx *cli.Context) string {
	pid, running, err := daemon.Status(daemon.PIDFilePath(ctx.Config.Dir()))
	switch {
	case err != nil:
		return warnStyle.Render(err.Error())
	case running:
		return goodStyle.Render(fmt.Sprintf("running (pid %d)", pid))
	default:
		return warnStyle.Render("not running, reminders will not be delivered ('hydratemate daemon')")
	}
}
