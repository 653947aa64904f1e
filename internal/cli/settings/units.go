package settings

import (
	"strings"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/models"
)

type UnitsCmd struct {
	Units string `arg:"" optional:"" help:"Display units: ml or oz. Prints the current units when omitted."`
}

func (c *UnitsCmd) Run(ctx *cli.Context) error {
	if c.Units == "" {
		ctx.Printf("Units: %s\n", ctx.Units())
		return nil
	}
	units, err := models.ParseUnits(strings.ToLower(strings.TrimSpace(c.Units)))
	if err != nil {
		return err
	}
	if err := ctx.Engine.UpdateUnits(units); err != nil {
		return err
	}
	ctx.Printf("✓ Amounts are now shown in %s\n", units)
	return nil
}
