package intake

import (
	"fmt"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
)

type HistoryCmd struct {
	Days int `short:"n" help:"Number of recorded days to show (0 for all)." default:"7"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative")
	}
	days := ctx.Engine.History(c.Days)
	if len(days) == 0 {
		ctx.Println("No history yet.")
		return nil
	}

	ctx.Println(titleStyle.Render("Hydration history"))
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		mark := warnStyle.Render("·")
		if d.GoalMet() {
			mark = goodStyle.Render("✓")
		}
		ctx.Printf("  %s %s  %s / %s  (%d entries)\n",
			mark, d.Date, ctx.FormatAmount(d.TotalIntake), ctx.FormatAmount(d.Goal), len(d.Entries))
	}

	ctx.Printf("\n  %d-day average: %s\n", constants.WeeklyWindowDays, ctx.FormatAmount(ctx.Engine.WeeklyAverage()))
	ctx.Printf("  Streak: %d day(s)\n", ctx.Engine.Streak())
	return nil
}
