package statestore

import (
	"fmt"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/models"
)

type step func(Document) (Document, []*errors.MigrationError)

// steps upgrade a document from the keyed version to the next one
var steps = map[int]step{
	1: migrateV1ToV2,
}

// Migrate upgrades doc to CurrentVersion by composing the per-version
// steps in order. A current document is returned unchanged.
func Migrate(doc Document) (StateV2, []*errors.MigrationError) {
	var discarded []*errors.MigrationError
	for doc.SchemaVersion() < CurrentVersion {
		next, ok := steps[doc.SchemaVersion()]
		if !ok {
			discarded = append(discarded, &errors.MigrationError{
				Subset: "document",
				Err:    fmt.Errorf("no migration from version %d", doc.SchemaVersion()),
			})
			return DefaultStateV2(), discarded
		}
		var errs []*errors.MigrationError
		doc, errs = next(doc)
		discarded = append(discarded, errs...)
	}

	current, ok := doc.(StateV2)
	if !ok {
		discarded = append(discarded, &errors.MigrationError{
			Subset: "document",
			Err:    fmt.Errorf("unexpected document type %T", doc),
		})
		return DefaultStateV2(), discarded
	}
	return current, discarded
}

// migrateV1ToV2 builds structured reminder settings from the flat legacy
// fields. Explicit flat fields win over a partial reminderSettings block;
// anything still missing takes its default.
func migrateV1ToV2(doc Document) (Document, []*errors.MigrationError) {
	v1 := doc.(StateV1)
	d := &decoder{}

	settings := d.applyPatch(models.DefaultReminderSettings(), v1.ReminderSettings)
	if v1.ReminderEnabled != nil {
		settings.Enabled = *v1.ReminderEnabled
	}
	if v1.ReminderInterval != nil {
		settings.IntervalMinutes = *v1.ReminderInterval
	}
	settings = d.sanitize(settings, models.DefaultReminderSettings())

	units, err := models.ParseUnits(v1.Units)
	if err != nil {
		d.discard("units", err)
		units = constants.DefaultUnits
	}

	days := v1.WeeklyStats
	if days == nil {
		days = []Day{}
	}

	return StateV2{
		DailyGoal:        v1.DailyGoal,
		WeeklyStats:      days,
		Streak:           v1.Streak,
		ReminderSettings: settings,
		Units:            units,
		DataVersion:      2,
	}, d.errs
}

// ToModel converts the persisted subset to an engine state. Today's intake
// fields are left empty; the engine derives them from WeeklyStats.
func ToModel(s StateV2) models.HydrationState {
	state := models.DefaultState()
	state.DailyGoal = s.DailyGoal
	state.Streak = s.Streak
	state.ReminderSettings = s.ReminderSettings
	state.Units = s.Units
	state.DataVersion = s.DataVersion

	state.WeeklyStats = make([]models.DailyStats, 0, len(s.WeeklyStats))
	for _, day := range s.WeeklyStats {
		stats := models.DailyStats{
			Date:        day.Date,
			TotalIntake: day.TotalIntake,
			Goal:        day.Goal,
			Entries:     make([]models.HydrationEntry, 0, len(day.Entries)),
		}
		for _, e := range day.Entries {
			stats.Entries = append(stats.Entries, models.HydrationEntry{
				ID:        e.ID,
				Amount:    e.Amount,
				Timestamp: e.Timestamp.Time,
				Type:      e.Type,
			})
		}
		state.WeeklyStats = append(state.WeeklyStats, stats)
	}
	return state
}

// FromModel extracts the durable subset of an engine state
func FromModel(state models.HydrationState) StateV2 {
	out := StateV2{
		DailyGoal:        state.DailyGoal,
		WeeklyStats:      make([]Day, 0, len(state.WeeklyStats)),
		Streak:           state.Streak,
		ReminderSettings: state.ReminderSettings,
		Units:            state.Units,
		DataVersion:      CurrentVersion,
	}
	for _, stats := range state.WeeklyStats {
		day := Day{
			Date:        stats.Date,
			TotalIntake: stats.TotalIntake,
			Goal:        stats.Goal,
			Entries:     make([]Entry, 0, len(stats.Entries)),
		}
		for _, e := range stats.Entries {
			day.Entries = append(day.Entries, Entry{
				ID:        e.ID,
				Amount:    e.Amount,
				Timestamp: NewInstant(e.Timestamp),
				Type:      e.Type,
			})
		}
		out.WeeklyStats = append(out.WeeklyStats, day)
	}
	return out
}
