package statestore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/storage"
)

type failingProvider struct {
	*storage.MemoryStore
	getErr error
	setErr error
}

func (f *failingProvider) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingProvider) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func seed(t *testing.T, raw string) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), constants.StateStorageKey, raw))
	return New(mem), mem
}

func TestLoadEmptyReturnsDefaults(t *testing.T) {
	s := New(storage.NewMemoryStore())

	state, report := s.Load(context.Background())
	assert.True(t, report.Empty)
	assert.NoError(t, report.Err)
	assert.False(t, report.NeedsSave())
	assert.Equal(t, DefaultStateV2(), state)
	assert.Equal(t, constants.DefaultDailyGoal, state.DailyGoal)
	assert.Equal(t, CurrentVersion, state.DataVersion)
}

func TestLoadLegacyFlatReminderFields(t *testing.T) {
	s, mem := seed(t, `{"reminderEnabled":true,"reminderInterval":90,"dataVersion":1}`)

	state, report := s.Load(context.Background())
	require.NoError(t, report.Err)
	assert.Equal(t, 1, report.FromVersion)
	assert.True(t, report.Migrated)
	assert.True(t, report.NeedsSave())
	assert.Empty(t, report.Discarded)

	assert.Equal(t, 2, state.DataVersion)
	assert.Equal(t, models.ReminderSettings{
		Enabled:         true,
		IntervalMinutes: 90,
		QuietHours:      models.QuietHours{Enabled: true, Start: 22, End: 6},
		SmartReminders:  true,
	}, state.ReminderSettings)

	backup, err := mem.Get(context.Background(), report.BackupKey)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(constants.StateBackupKeyPattern, 1), report.BackupKey)
	assert.JSONEq(t, `{"reminderEnabled":true,"reminderInterval":90,"dataVersion":1}`, backup)
}

func TestLoadMissingVersionIsLegacy(t *testing.T) {
	s, _ := seed(t, `{"dailyGoal":2500,"reminderEnabled":false,"units":"oz"}`)

	state, report := s.Load(context.Background())
	assert.Equal(t, 1, report.FromVersion)
	assert.Equal(t, 2500, state.DailyGoal)
	assert.False(t, state.ReminderSettings.Enabled)
	assert.Equal(t, constants.DefaultIntervalMinutes, state.ReminderSettings.IntervalMinutes)
	assert.Equal(t, constants.UnitsOz, state.Units)
}

func TestLegacyPartialReminderBlockIsCompleted(t *testing.T) {
	doc, discarded, err := Decode([]byte(`{
		"dataVersion": 1,
		"reminderSettings": {"intervalMinutes": 45, "quietHours": {"start": 23}},
		"reminderInterval": 30
	}`))
	require.NoError(t, err)
	assert.Empty(t, discarded)

	state, errs := Migrate(doc)
	assert.Empty(t, errs)
	assert.Equal(t, 30.0, state.ReminderSettings.IntervalMinutes, "flat field wins")
	assert.Equal(t, 23, state.ReminderSettings.QuietHours.Start)
	assert.Equal(t, 6, state.ReminderSettings.QuietHours.End)
	assert.True(t, state.ReminderSettings.QuietHours.Enabled)
	assert.True(t, state.ReminderSettings.SmartReminders)
}

func TestMigrateIsIdempotent(t *testing.T) {
	doc, _, err := Decode([]byte(`{
		"dailyGoal": 1800,
		"reminderEnabled": true,
		"reminderInterval": 60,
		"weeklyStats": [{"date":"2026-10-18","totalIntake":500,"goal":1800,
			"entries":[{"id":"1","amount":500,"timestamp":"2026-10-18T09:00:00.000Z","type":"Water"}]}]
	}`))
	require.NoError(t, err)

	once, _ := Migrate(doc)
	twice, errs := Migrate(once)
	assert.Empty(t, errs)
	assert.Equal(t, once, twice)

	// and through the wire format
	data, err := json.Marshal(once)
	require.NoError(t, err)
	redecoded, discarded, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, discarded)
	thrice, _ := Migrate(redecoded)
	assert.Equal(t, once, thrice)
}

func TestDecodeDiscardsOnlyBadSubsets(t *testing.T) {
	raw := `{
		"dataVersion": 2,
		"dailyGoal": 2000,
		"reminderSettings": "every hour please",
		"weeklyStats": [
			{"date":"2026-10-17","totalIntake":800,"goal":2000,"entries":[
				{"id":"a","amount":300,"timestamp":"2026-10-17T08:00:00Z","type":"Water"},
				{"id":"b","amount":500,"timestamp":"not a time","type":"Tea"}
			]},
			{"date":"17/10/2026","totalIntake":100,"goal":2000,"entries":[]},
			{"date":"2026-10-18","totalIntake":2100,"goal":2000,"entries":[
				{"id":"c","amount":2100,"timestamp":1792310400000,"type":"Coffee"}
			]}
		]
	}`

	doc, discarded, err := Decode([]byte(raw))
	require.NoError(t, err)

	subsets := map[string]bool{}
	for _, d := range discarded {
		subsets[d.Subset] = true
		assert.True(t, errors.IsMigration(d))
	}
	assert.True(t, subsets["reminderSettings"])
	assert.True(t, subsets["weeklyStats[1]"])
	assert.True(t, subsets["weeklyStats[2026-10-17].entries[1]"])
	assert.Len(t, discarded, 3)

	state := doc.(StateV2)
	assert.Equal(t, models.DefaultReminderSettings(), state.ReminderSettings)
	require.Len(t, state.WeeklyStats, 2)
	assert.Equal(t, "2026-10-17", state.WeeklyStats[0].Date)
	assert.Equal(t, 300, state.WeeklyStats[0].TotalIntake, "total re-summed after a dropped entry")
	assert.Len(t, state.WeeklyStats[0].Entries, 1)
	assert.Equal(t, 2100, state.WeeklyStats[1].TotalIntake)
}

func TestDecodeMergesDuplicateDaysAndSorts(t *testing.T) {
	doc, _, err := Decode([]byte(`{"dataVersion":2,"weeklyStats":[
		{"date":"2026-10-18","goal":2000,"entries":[{"id":"x","amount":200,"timestamp":"2026-10-18T12:00:00Z"}]},
		{"date":"2026-10-16","goal":2000,"entries":[]},
		{"date":"2026-10-18","goal":2000,"entries":[{"id":"y","amount":300,"timestamp":"2026-10-18T08:00:00Z"}]}
	]}`))
	require.NoError(t, err)

	state := doc.(StateV2)
	require.Len(t, state.WeeklyStats, 2)
	assert.Equal(t, "2026-10-16", state.WeeklyStats[0].Date)
	day := state.WeeklyStats[1]
	assert.Equal(t, 500, day.TotalIntake)
	require.Len(t, day.Entries, 2)
	assert.Equal(t, "y", day.Entries[0].ID, "entries sorted chronologically")
	assert.Equal(t, constants.DrinkWater, day.Entries[0].Type, "missing type defaults to water")
}

func TestDecodeMergesRepeatedDayOnce(t *testing.T) {
	doc, _, err := Decode([]byte(`{"dataVersion":2,"weeklyStats":[
		{"date":"2026-10-18","goal":2000,"totalIntake":500,"entries":[
			{"id":"x","amount":200,"timestamp":"2026-10-18T08:00:00Z"},
			{"id":"y","amount":300,"timestamp":"2026-10-18T12:00:00Z"}]},
		{"date":"2026-10-18","goal":2000,"totalIntake":500,"entries":[
			{"id":"x","amount":200,"timestamp":"2026-10-18T08:00:00Z"},
			{"id":"y","amount":300,"timestamp":"2026-10-18T12:00:00Z"}]},
		{"date":"2026-10-17","goal":2000,"totalIntake":1200},
		{"date":"2026-10-17","goal":2000,"totalIntake":1200}
	]}`))
	require.NoError(t, err)

	state := doc.(StateV2)
	require.Len(t, state.WeeklyStats, 2)
	assert.Equal(t, 1200, state.WeeklyStats[0].TotalIntake, "entry-less repeats are not added")
	day := state.WeeklyStats[1]
	assert.Equal(t, 500, day.TotalIntake)
	require.Len(t, day.Entries, 2)
	assert.Equal(t, "x", day.Entries[0].ID)
	assert.Equal(t, "y", day.Entries[1].ID)
}

func TestLoadLegacyNullReminderEnabledUsesDefault(t *testing.T) {
	s, _ := seed(t, `{"dataVersion":1,"reminderEnabled":null,"reminderInterval":60}`)

	state, report := s.Load(context.Background())
	require.NoError(t, report.Err)
	assert.Empty(t, report.Discarded)
	assert.Equal(t, constants.DefaultRemindersEnabled, state.ReminderSettings.Enabled)
	assert.Equal(t, 60.0, state.ReminderSettings.IntervalMinutes)
}

func TestMigrateNaNIntervalUsesDefault(t *testing.T) {
	state, _ := Migrate(StateV1{ReminderInterval: ptrFloat(math.NaN())})
	assert.Equal(t, constants.DefaultIntervalMinutes, state.ReminderSettings.IntervalMinutes)
}

func ptrFloat(f float64) *float64 { return &f }

func TestLoadCorruptBlob(t *testing.T) {
	s, mem := seed(t, `{"dailyGoal": 20`)

	state, report := s.Load(context.Background())
	assert.Error(t, report.Err)
	assert.False(t, report.NeedsSave())
	assert.Equal(t, DefaultStateV2(), state)

	assert.Equal(t, fmt.Sprintf(constants.StateBackupKeyPattern, 0), report.BackupKey)
	backup, err := mem.Get(context.Background(), report.BackupKey)
	require.NoError(t, err)
	assert.Equal(t, `{"dailyGoal": 20`, backup)
}

func TestLoadFutureVersionIsPreserved(t *testing.T) {
	s, mem := seed(t, `{"dataVersion":3,"dailyGoal":2000}`)

	_, report := s.Load(context.Background())
	assert.ErrorIs(t, report.Err, ErrFutureVersion)
	assert.Equal(t, fmt.Sprintf(constants.StateBackupKeyPattern, 3), report.BackupKey)

	_, err := mem.Get(context.Background(), report.BackupKey)
	assert.NoError(t, err)
}

func TestLoadBackendFailure(t *testing.T) {
	p := &failingProvider{MemoryStore: storage.NewMemoryStore(), getErr: stderrors.New("disk on fire")}
	s := New(p)

	state, report := s.Load(context.Background())
	assert.True(t, errors.IsPersistence(report.Err))
	assert.Equal(t, DefaultStateV2(), state)
}

func TestLegacyNotMarkedForSaveWithoutBackup(t *testing.T) {
	p := &failingProvider{MemoryStore: storage.NewMemoryStore()}
	require.NoError(t, p.MemoryStore.Set(context.Background(), constants.StateStorageKey, `{"reminderEnabled":true}`))
	p.setErr = stderrors.New("read-only")

	_, report := New(p).Load(context.Background())
	assert.False(t, report.Migrated)
	assert.False(t, report.NeedsSave())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	mem := storage.NewMemoryStore()
	s := New(mem)
	ctx := context.Background()

	state := models.DefaultState()
	state.DailyGoal = 2500
	state.Units = constants.UnitsOz
	state.Streak = 3
	state.WeeklyStats = []models.DailyStats{{
		Date:        "2026-10-19",
		TotalIntake: 250,
		Goal:        2500,
		Entries: []models.HydrationEntry{{
			ID:        "e1",
			Amount:    250,
			Timestamp: time.Date(2026, 10, 19, 7, 45, 0, 0, time.UTC),
			Type:      constants.DrinkTea,
		}},
	}}
	state.ReminderSettings.CustomMessage = "sip"

	require.NoError(t, s.Save(ctx, FromModel(state)))

	loaded, report := s.Load(ctx)
	require.NoError(t, report.Err)
	assert.False(t, report.Migrated)
	assert.Equal(t, CurrentVersion, report.FromVersion)

	back := ToModel(loaded)
	assert.Equal(t, 2500, back.DailyGoal)
	assert.Equal(t, constants.UnitsOz, back.Units)
	assert.Equal(t, 3, back.Streak)
	assert.Equal(t, "sip", back.ReminderSettings.CustomMessage)
	require.Len(t, back.WeeklyStats, 1)
	require.Len(t, back.WeeklyStats[0].Entries, 1)
	assert.True(t, state.WeeklyStats[0].Entries[0].Timestamp.Equal(back.WeeklyStats[0].Entries[0].Timestamp))
	assert.Empty(t, back.TodayEntries)
	assert.Zero(t, back.CurrentIntake)

	raw, err := mem.Get(ctx, constants.StateStorageKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"timestamp":"2026-10-19T07:45:00.000Z"`)
	assert.NotContains(t, raw, "currentIntake")
	assert.NotContains(t, raw, "reminderEnabled")
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	p := &failingProvider{MemoryStore: storage.NewMemoryStore(), setErr: stderrors.New("quota exceeded")}
	err := New(p).Save(context.Background(), DefaultStateV2())
	assert.True(t, errors.IsPersistence(err))
}
