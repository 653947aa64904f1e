package intake

import (
	"github.com/julianstephens/hydratemate/internal/cli"
)

type ResetCmd struct {
	Yes bool `short:"y" help:"Reset without asking."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm("Reset today's intake?", "Every entry logged today will be removed.")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}
	ctx.PerformAutomaticBackup()
	ctx.Engine.ResetDay()
	ctx.Println("✓ Today's intake has been reset")
	return nil
}
