package intake

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/hydratemate/internal/cli/clitest"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/hydration"
	"github.com/julianstephens/hydratemate/internal/models"
)

func TestAddCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&AddCmd{Amount: "250", Type: "tea"}).Run(env.Ctx))

	state := env.Ctx.Engine.State()
	assert.Equal(t, 250, state.CurrentIntake)
	require.Len(t, state.TodayEntries, 1)
	assert.Equal(t, constants.DrinkTea, state.TodayEntries[0].Type)
	assert.Contains(t, env.Output(), "Logged 250 ml of Tea")
}

func TestAddCmdOunces(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&AddCmd{Amount: "8oz", Type: "water"}).Run(env.Ctx))
	assert.Equal(t, 237, env.Ctx.Engine.State().CurrentIntake)
}

func TestAddCmdDefaultAmount(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&AddCmd{Type: "water"}).Run(env.Ctx))
	want := hydration.QuickAddSuggestions(time.Now().UTC().Hour())[0]
	assert.Equal(t, want, env.Ctx.Engine.State().CurrentIntake)
}

func TestAddCmdRejectsBadInput(t *testing.T) {
	env := clitest.New(t)

	assert.Error(t, (&AddCmd{Amount: "250", Type: "soda"}).Run(env.Ctx))
	assert.Error(t, (&AddCmd{Amount: "-5", Type: "water"}).Run(env.Ctx))
	assert.Error(t, (&AddCmd{Amount: "20000", Type: "water", Yes: true}).Run(env.Ctx))
	assert.Zero(t, env.Ctx.Engine.State().CurrentIntake)
}

func TestAddCmdConfirmsLargeAmounts(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&AddCmd{Amount: "3500", Type: "water"}).Run(env.Ctx))
	assert.Len(t, env.Asked, 1)
	assert.Contains(t, env.Output(), "Cancelled")
	assert.Zero(t, env.Ctx.Engine.State().CurrentIntake)

	env.Answers = []bool{true}
	require.NoError(t, (&AddCmd{Amount: "3500", Type: "water"}).Run(env.Ctx))
	assert.Equal(t, 3500, env.Ctx.Engine.State().CurrentIntake)

	require.NoError(t, (&AddCmd{Amount: "3500", Type: "water", Yes: true}).Run(env.Ctx))
	assert.Len(t, env.Asked, 2)
	assert.Equal(t, 7000, env.Ctx.Engine.State().CurrentIntake)
}

func TestAddCmdCelebratesGoal(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, env.Ctx.Engine.UpdateGoal(500))

	require.NoError(t, (&AddCmd{Amount: "400", Type: "water"}).Run(env.Ctx))
	title := hydration.MotivationFor(100).Title
	assert.NotContains(t, env.Output(), title)

	require.NoError(t, (&AddCmd{Amount: "100", Type: "water"}).Run(env.Ctx))
	assert.Contains(t, env.Output(), title)
}

func TestListCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "No entries logged today")

	require.NoError(t, (&AddCmd{Amount: "300", Type: "coffee"}).Run(env.Ctx))
	env.Output()
	id := env.Ctx.Engine.State().TodayEntries[0].ID

	require.NoError(t, (&ListCmd{}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, id[:8])
	assert.NotContains(t, out, id)
	assert.Contains(t, out, "Total: 300 ml")

	require.NoError(t, (&ListCmd{Full: true}).Run(env.Ctx))
	assert.Contains(t, env.Output(), id)
}

func TestRemoveCmd(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&AddCmd{Amount: "300", Type: "water"}).Run(env.Ctx))
	require.NoError(t, (&AddCmd{Amount: "200", Type: "water"}).Run(env.Ctx))
	id := env.Ctx.Engine.State().TodayEntries[0].ID

	require.NoError(t, (&RemoveCmd{ID: id}).Run(env.Ctx))
	state := env.Ctx.Engine.State()
	assert.Equal(t, 200, state.CurrentIntake)
	assert.Len(t, state.TodayEntries, 1)

	assert.Error(t, (&RemoveCmd{ID: id}).Run(env.Ctx))
}

func TestFindEntry(t *testing.T) {
	entries := []models.HydrationEntry{
		{ID: "abcd1234", Amount: 100},
		{ID: "abcd5678", Amount: 200},
		{ID: "ffff0000", Amount: 300},
	}

	tests := []struct {
		name    string
		id      string
		want    int
		wantErr string
	}{
		{name: "exact", id: "abcd5678", want: 200},
		{name: "unique prefix", id: "ffff", want: 300},
		{name: "trimmed", id: "  ffff0000 ", want: 300},
		{name: "ambiguous prefix", id: "abcd", wantErr: "matches 2 entries"},
		{name: "short prefix", id: "ff", wantErr: "not found"},
		{name: "unknown", id: "99999999", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findEntry(entries, tt.id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Amount)
		})
	}
}

func TestHistoryCmd(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&HistoryCmd{Days: 7}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "No history yet")

	require.NoError(t, (&AddCmd{Amount: "2000", Type: "water"}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&HistoryCmd{Days: 7}).Run(env.Ctx))
	out := env.Output()
	assert.Contains(t, out, env.Ctx.Engine.Today())
	assert.Contains(t, out, "(1 entries)")
	assert.Contains(t, out, "Streak: 1 day(s)")

	assert.Error(t, (&HistoryCmd{Days: -1}).Run(env.Ctx))
}

func TestResetCmd(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&AddCmd{Amount: "500", Type: "water"}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&ResetCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Output(), "Cancelled")
	assert.Equal(t, 500, env.Ctx.Engine.State().CurrentIntake)

	env.Answers = []bool{true}
	require.NoError(t, (&ResetCmd{}).Run(env.Ctx))
	assert.Zero(t, env.Ctx.Engine.State().CurrentIntake)
	assert.Empty(t, env.Ctx.Engine.State().TodayEntries)

	require.NoError(t, (&AddCmd{Amount: "500", Type: "water"}).Run(env.Ctx))
	require.NoError(t, (&ResetCmd{Yes: true}).Run(env.Ctx))
	assert.Zero(t, env.Ctx.Engine.State().CurrentIntake)
}

func TestStatusCmd(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&AddCmd{Amount: "500", Type: "water"}).Run(env.Ctx))
	env.Output()

	require.NoError(t, (&StatusCmd{}).Run(env.Ctx))
	out := env.Output()
	for _, want := range []string{"Today", "500 ml / 2,000 ml (25%)", "Remaining", "1,500 ml", "Quick add", "not running"} {
		assert.True(t, strings.Contains(out, want), "status output missing %q:\n%s", want, out)
	}
}

func TestStatusCmdPersistsBeforeReading(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, (&AddCmd{Amount: "500", Type: "water"}).Run(env.Ctx))
	require.NoError(t, (&StatusCmd{}).Run(env.Ctx))

	raw, err := env.KV.Get(context.Background(), constants.StateStorageKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"totalIntake":500`)
}
