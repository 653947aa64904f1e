package intake

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/models"
)

type AddCmd struct {
	Amount string `arg:"" optional:"" help:"Amount to log: 250, 250ml or 8oz. Defaults to a suggestion for the time of day."`
	Type   string `short:"t" help:"Drink type: water, tea, coffee, juice, sports-drink or other." default:"water"`
	Yes    bool   `short:"y" help:"Log large amounts without asking."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	drink, err := models.ParseDrinkType(c.Type)
	if err != nil {
		return err
	}

	var amount int
	if c.Amount == "" {
		amount = hydration.QuickAddSuggestions(time.Now().In(ctx.Engine.Location()).Hour())[0]
	} else {
		amount, err = cli.ParseAmount(c.Amount, ctx.Units())
		if err != nil {
			return err
		}
	}

	if cli.LargeIntake(amount, ctx.Units()) && !c.Yes {
		ok, err := ctx.Confirm(
			fmt.Sprintf("Log %s of %s?", ctx.FormatAmount(amount), drink),
			"That is more than most people drink at once.",
		)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	before := ctx.Engine.ProgressPercentage()
	entry, err := ctx.Engine.AddIntake(amount, drink)
	if err != nil {
		return err
	}
	progress := ctx.Engine.ProgressPercentage()
	state := ctx.Engine.State()

	ctx.Printf("✓ Logged %s of %s %s\n", ctx.FormatAmount(entry.Amount), entry.Type, hydration.DrinkEmoji(entry.Type))
	ctx.Printf("  %s / %s (%d%%)\n",
		ctx.FormatAmount(state.CurrentIntake), ctx.FormatAmount(state.DailyGoal), int(math.Round(progress)))

	if before < 100 && progress >= 100 {
		m := hydration.MotivationFor(progress)
		ctx.Println(goodStyle.Render(fmt.Sprintf("%s %s %s", m.Emoji, m.Title, m.Subtitle)))
	}
	return nil
}
