package intake

import (
	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/hydration"
)

type ListCmd struct {
	Full bool `help:"Show full entry IDs."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	state := ctx.Engine.State()
	if len(state.TodayEntries) == 0 {
		ctx.Println("No entries logged today. Use 'hydratemate add' to log a drink.")
		return nil
	}

	ctx.Println(titleStyle.Render("Today's entries"))
	for _, e := range state.TodayEntries {
		id := e.ID
		if !c.Full && len(id) > 8 {
			id = id[:8]
		}
		ctx.Printf("  %s  %s  %-10s %s %s\n",
			mutedStyle.Render(id),
			e.Timestamp.In(ctx.Engine.Location()).Format(constants.TimeFormat),
			ctx.FormatAmount(e.Amount),
			hydration.DrinkEmoji(e.Type),
			e.Type)
	}
	ctx.Printf("\n  Total: %s\n", ctx.FormatAmount(state.CurrentIntake))
	return nil
}
