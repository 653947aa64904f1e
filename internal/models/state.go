package models

import (
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
)

// HydrationState is the aggregate root held by the engine
type HydrationState struct {
	DailyGoal        int              `json:"dailyGoal"`
	CurrentIntake    int              `json:"currentIntake"`
	TodayEntries     []HydrationEntry `json:"todayEntries"`
	WeeklyStats      []DailyStats     `json:"weeklyStats"`
	Streak           int              `json:"streak"`
	ReminderSettings ReminderSettings `json:"reminderSettings"`
	Units            constants.Units  `json:"units"`
	DataVersion      int              `json:"dataVersion"`
}

// DefaultState returns the state created on first launch
func DefaultState() HydrationState {
	return HydrationState{
		DailyGoal:        constants.DefaultDailyGoal,
		TodayEntries:     []HydrationEntry{},
		WeeklyStats:      []DailyStats{},
		ReminderSettings: DefaultReminderSettings(),
		Units:            constants.DefaultUnits,
		DataVersion:      constants.CurrentSchemaVersion,
	}
}

// Clone returns a deep copy safe to hand outside the engine
func (s HydrationState) Clone() HydrationState {
	out := s
	out.TodayEntries = append([]HydrationEntry{}, s.TodayEntries...)
	out.WeeklyStats = make([]DailyStats, len(s.WeeklyStats))
	for i, d := range s.WeeklyStats {
		out.WeeklyStats[i] = d.Clone()
	}
	return out
}

// FindDay returns the index of the record for the given day key, or -1
func (s HydrationState) FindDay(date string) int {
	for i, d := range s.WeeklyStats {
		if d.Date == date {
			return i
		}
	}
	return -1
}

// ValidateGoal checks a daily goal in millilitres
func ValidateGoal(goal int) error {
	if goal < constants.MinDailyGoal || goal > constants.MaxDailyGoal {
		return errors.NewValidation("goal", "%d ml must be between %d and %d ml",
			goal, constants.MinDailyGoal, constants.MaxDailyGoal)
	}
	return nil
}

// ParseUnits validates a units preference
func ParseUnits(s string) (constants.Units, error) {
	switch constants.Units(s) {
	case constants.UnitsMl, constants.UnitsOz:
		return constants.Units(s), nil
	default:
		return "", errors.NewValidation("units", "%q must be ml or oz", s)
	}
}
