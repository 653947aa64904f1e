package statestore

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// CurrentVersion is the schema version written by Save
const CurrentVersion = constants.CurrentSchemaVersion

var (
	// ErrNotObject is returned by Decode when the blob is not a JSON object
	ErrNotObject = stderrors.New("stored state is not a JSON object")
	// ErrFutureVersion is returned by Decode for documents written by a newer release
	ErrFutureVersion = stderrors.New("stored state was written by a newer version")
)

// Document is one of the persisted schema versions
type Document interface {
	SchemaVersion() int
}

// Entry is the wire form of a hydration entry
type Entry struct {
	ID        string              `json:"id"`
	Amount    int                 `json:"amount"`
	Timestamp Instant             `json:"timestamp"`
	Type      constants.DrinkType `json:"type"`
}

// Day is the wire form of a daily stats record
type Day struct {
	Date        string  `json:"date"`
	TotalIntake int     `json:"totalIntake"`
	Goal        int     `json:"goal"`
	Entries     []Entry `json:"entries"`
}

// StateV2 is the current persisted subset of the hydration state
type StateV2 struct {
	DailyGoal        int                     `json:"dailyGoal"`
	WeeklyStats      []Day                   `json:"weeklyStats"`
	Streak           int                     `json:"streak"`
	ReminderSettings models.ReminderSettings `json:"reminderSettings"`
	Units            constants.Units         `json:"units"`
	DataVersion      int                     `json:"dataVersion"`
}

func (StateV2) SchemaVersion() int { return 2 }

// QuietHoursPatch is a partially specified quiet hours block
type QuietHoursPatch struct {
	Enabled *bool `json:"enabled"`
	Start   *int  `json:"start"`
	End     *int  `json:"end"`
}

// ReminderPatch is a partially specified reminder settings block, as early
// releases wrote it.
type ReminderPatch struct {
	Enabled         *bool            `json:"enabled"`
	IntervalMinutes *float64         `json:"intervalMinutes"`
	QuietHours      *QuietHoursPatch `json:"quietHours"`
	SmartReminders  *bool            `json:"smartReminders"`
	CustomMessage   *string          `json:"customMessage"`
}

// StateV1 is the legacy layout with flat reminder fields
type StateV1 struct {
	DailyGoal        int
	WeeklyStats      []Day
	Streak           int
	Units            string
	ReminderEnabled  *bool
	ReminderInterval *float64
	ReminderSettings *ReminderPatch
}

func (StateV1) SchemaVersion() int { return 1 }

// DefaultStateV2 returns the persisted form of a fresh state
func DefaultStateV2() StateV2 {
	return FromModel(models.DefaultState())
}

// Decode detects the schema version of raw (a missing dataVersion means 1)
// and parses it. Subsets that cannot be parsed are dropped and reported;
// an error is returned only when nothing can be read.
func Decode(raw []byte) (Document, []*errors.MigrationError, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		if err == nil {
			err = ErrNotObject
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	version := 1
	if v, ok := fields["dataVersion"]; ok && string(v) != "null" {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return nil, nil, fmt.Errorf("invalid dataVersion %s: %w", v, err)
		}
		version = int(n)
		if version < 1 {
			version = 1
		}
	}
	if version > CurrentVersion {
		return nil, nil, fmt.Errorf("%w: dataVersion %d > %d", ErrFutureVersion, version, CurrentVersion)
	}

	d := &decoder{fields: fields}
	goal := d.intField("dailyGoal", constants.DefaultDailyGoal)
	streak := d.intField("streak", 0)
	units := d.stringField("units", string(constants.DefaultUnits))
	days := d.days()

	if version == 1 {
		doc := StateV1{
			DailyGoal:   goal,
			WeeklyStats: days,
			Streak:      streak,
			Units:       units,
		}
		if v, ok := fields["reminderEnabled"]; ok && string(v) != "null" {
			var b bool
			if err := json.Unmarshal(v, &b); err == nil {
				doc.ReminderEnabled = &b
			} else {
				d.discard("reminderEnabled", err)
			}
		}
		if v, ok := fields["reminderInterval"]; ok && string(v) != "null" {
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				doc.ReminderInterval = &f
			} else {
				d.discard("reminderInterval", err)
			}
		}
		if v, ok := fields["reminderSettings"]; ok && string(v) != "null" {
			var patch ReminderPatch
			if err := json.Unmarshal(v, &patch); err == nil {
				doc.ReminderSettings = &patch
			} else {
				d.discard("reminderSettings", err)
			}
		}
		return doc, d.errs, nil
	}

	doc := StateV2{
		DailyGoal:        goal,
		WeeklyStats:      days,
		Streak:           streak,
		ReminderSettings: models.DefaultReminderSettings(),
		Units:            constants.Units(units),
		DataVersion:      version,
	}
	if v, ok := fields["reminderSettings"]; ok && string(v) != "null" {
		var patch ReminderPatch
		if err := json.Unmarshal(v, &patch); err == nil {
			doc.ReminderSettings = d.applyPatch(models.DefaultReminderSettings(), &patch)
		} else {
			d.discard("reminderSettings", err)
		}
	}
	if _, err := models.ParseUnits(string(doc.Units)); err != nil {
		d.discard("units", err)
		doc.Units = constants.DefaultUnits
	}
	return doc, d.errs, nil
}

type decoder struct {
	fields map[string]json.RawMessage
	errs   []*errors.MigrationError
}

func (d *decoder) discard(subset string, err error) {
	d.errs = append(d.errs, &errors.MigrationError{Subset: subset, Err: err})
}

func (d *decoder) intField(key string, def int) int {
	v, ok := d.fields[key]
	if !ok || string(v) == "null" {
		return def
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		d.discard(key, err)
		return def
	}
	return int(f)
}

func (d *decoder) stringField(key, def string) string {
	v, ok := d.fields[key]
	if !ok || string(v) == "null" {
		return def
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.discard(key, err)
		return def
	}
	return s
}

type rawDay struct {
	Date        string            `json:"date"`
	TotalIntake float64           `json:"totalIntake"`
	Goal        *float64          `json:"goal"`
	Entries     []json.RawMessage `json:"entries"`
}

type rawEntry struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Timestamp Instant `json:"timestamp"`
	Type      string  `json:"type"`
}

// days parses weeklyStats record by record and entry by entry, merging
// duplicate day keys and sorting ascending.
func (d *decoder) days() []Day {
	v, ok := d.fields["weeklyStats"]
	if !ok || string(v) == "null" {
		return []Day{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.discard("weeklyStats", err)
		return []Day{}
	}

	byDate := map[string]*Day{}
	for i, item := range items {
		var rd rawDay
		if err := json.Unmarshal(item, &rd); err != nil {
			d.discard(fmt.Sprintf("weeklyStats[%d]", i), err)
			continue
		}
		rd.Date = strings.TrimSpace(rd.Date)
		if !utils.ValidDayKey(rd.Date) {
			d.discard(fmt.Sprintf("weeklyStats[%d]", i), fmt.Errorf("invalid day key %q", rd.Date))
			continue
		}

		day := Day{Date: rd.Date, Goal: constants.DefaultDailyGoal, Entries: []Entry{}}
		if rd.Goal != nil {
			day.Goal = int(*rd.Goal)
		}
		dropped := false
		for j, rawItem := range rd.Entries {
			entry, err := parseEntry(rawItem)
			if err != nil {
				d.discard(fmt.Sprintf("weeklyStats[%s].entries[%d]", rd.Date, j), err)
				dropped = true
				continue
			}
			day.Entries = append(day.Entries, entry)
		}
		if len(day.Entries) > 0 || dropped {
			day.TotalIntake = sumEntries(day.Entries)
		} else {
			day.TotalIntake = int(rd.TotalIntake)
		}

		if existing, ok := byDate[day.Date]; ok {
			mergeDay(existing, day)
			continue
		}
		byDate[day.Date] = &day
	}

	out := make([]Day, 0, len(byDate))
	for _, day := range byDate {
		sort.SliceStable(day.Entries, func(a, b int) bool {
			return day.Entries[a].Timestamp.Before(day.Entries[b].Timestamp.Time)
		})
		out = append(out, *day)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out
}

// mergeDay folds a repeated record for the same date into existing. Entries
// already present by id are kept once. Records without entries contribute
// the larger of their totals.
func mergeDay(existing *Day, day Day) {
	seen := make(map[string]bool, len(existing.Entries))
	for _, e := range existing.Entries {
		seen[e.ID] = true
	}
	for _, e := range day.Entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		existing.Entries = append(existing.Entries, e)
	}
	if len(existing.Entries) > 0 {
		existing.TotalIntake = sumEntries(existing.Entries)
	} else {
		existing.TotalIntake = max(existing.TotalIntake, day.TotalIntake)
	}
	existing.Goal = day.Goal
}

func parseEntry(raw json.RawMessage) (Entry, error) {
	var re rawEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return Entry{}, err
	}
	if re.Timestamp.IsZero() {
		return Entry{}, fmt.Errorf("missing timestamp")
	}
	if re.Amount <= 0 {
		return Entry{}, fmt.Errorf("non-positive amount %v", re.Amount)
	}
	drink, err := models.ParseDrinkType(re.Type)
	if err != nil {
		drink = constants.DrinkOther
	}
	id := strings.TrimSpace(re.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return Entry{
		ID:        id,
		Amount:    int(re.Amount),
		Timestamp: NewInstant(re.Timestamp.Time),
		Type:      drink,
	}, nil
}

func sumEntries(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

// applyPatch overlays the fields present in p on base. A resulting
// out-of-range interval or hour is reported and reset to its default.
func (d *decoder) applyPatch(base models.ReminderSettings, p *ReminderPatch) models.ReminderSettings {
	if p == nil {
		return base
	}
	defaults := models.DefaultReminderSettings()
	if p.Enabled != nil {
		base.Enabled = *p.Enabled
	}
	if p.IntervalMinutes != nil {
		base.IntervalMinutes = *p.IntervalMinutes
	}
	if p.SmartReminders != nil {
		base.SmartReminders = *p.SmartReminders
	}
	if p.CustomMessage != nil {
		base.CustomMessage = *p.CustomMessage
	}
	if q := p.QuietHours; q != nil {
		if q.Enabled != nil {
			base.QuietHours.Enabled = *q.Enabled
		}
		if q.Start != nil {
			base.QuietHours.Start = *q.Start
		}
		if q.End != nil {
			base.QuietHours.End = *q.End
		}
	}
	return d.sanitize(base, defaults)
}

func (d *decoder) sanitize(s, defaults models.ReminderSettings) models.ReminderSettings {
	if !models.IntervalInRange(s.IntervalMinutes) {
		d.discard("reminderSettings.intervalMinutes", fmt.Errorf("out of range: %g", s.IntervalMinutes))
		s.IntervalMinutes = defaults.IntervalMinutes
	}
	if s.QuietHours.Start < 0 || s.QuietHours.Start > 23 || s.QuietHours.End < 0 || s.QuietHours.End > 23 {
		d.discard("reminderSettings.quietHours", fmt.Errorf("hours out of range: %d-%d", s.QuietHours.Start, s.QuietHours.End))
		s.QuietHours = defaults.QuietHours
	}
	return s
}
