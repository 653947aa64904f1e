package intake

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/models"
)

// minPrefix is the shortest entry id prefix accepted by remove
const minPrefix = 4

type RemoveCmd struct {
	ID string `arg:"" help:"Entry ID, or a unique prefix of at least 4 characters (see 'hydratemate list')."`
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	entry, err := findEntry(ctx.Engine.State().TodayEntries, c.ID)
	if err != nil {
		return err
	}
	if !ctx.Engine.RemoveEntry(entry.ID) {
		return fmt.Errorf("entry %s not found", c.ID)
	}
	ctx.Printf("✓ Removed %s of %s logged at %s\n",
		ctx.FormatAmount(entry.Amount), entry.Type, entry.Timestamp.In(ctx.Engine.Location()).Format(constants.TimeFormat))
	return nil
}

func findEntry(entries []models.HydrationEntry, id string) (models.HydrationEntry, error) {
	id = strings.TrimSpace(id)
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	if len(id) < minPrefix {
		return models.HydrationEntry{}, fmt.Errorf("entry %q not found in today's log", id)
	}

	var matches []models.HydrationEntry
	for _, e := range entries {
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return models.HydrationEntry{}, fmt.Errorf("entry %q not found in today's log", id)
	case 1:
		return matches[0], nil
	default:
		return models.HydrationEntry{}, fmt.Errorf("prefix %q matches %d entries, use more characters", id, len(matches))
	}
}
