package settings

import (
	"github.com/julianstephens/hydratemate/internal/cli"
)

type GoalCmd struct {
	Goal string `arg:"" optional:"" help:"New daily goal, e.g. 2500 or 85oz. Prints the current goal when omitted."`
}

func (c *GoalCmd) Run(ctx *cli.Context) error {
	if c.Goal == "" {
		ctx.Printf("Daily goal: %s\n", ctx.FormatAmount(ctx.Engine.State().DailyGoal))
		return nil
	}
	goal, err := cli.ParseAmount(c.Goal, ctx.Units())
	if err != nil {
		return err
	}
	if err := ctx.Engine.UpdateGoal(goal); err != nil {
		return err
	}
	ctx.Printf("✓ Daily goal set to %s\n", ctx.FormatAmount(goal))
	return nil
}
