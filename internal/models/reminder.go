package models

import (
	"strings"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
)

// QuietHours is a daily window, in whole local hours, during which reminders
// are deferred. Start > End describes an overnight window.
type QuietHours struct {
	Enabled bool `json:"enabled"`
	Start   int  `json:"start"`
	End     int  `json:"end"`
}

// ReminderSettings controls reminder notifications
type ReminderSettings struct {
	Enabled         bool       `json:"enabled"`
	IntervalMinutes float64    `json:"intervalMinutes"`
	QuietHours      QuietHours `json:"quietHours"`
	SmartReminders  bool       `json:"smartReminders"`
	CustomMessage   string     `json:"customMessage,omitempty"`
}

// DefaultReminderSettings returns the settings used on first launch
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Enabled:         constants.DefaultRemindersEnabled,
		IntervalMinutes: constants.DefaultIntervalMinutes,
		QuietHours: QuietHours{
			Enabled: constants.DefaultQuietHoursEnabled,
			Start:   constants.DefaultQuietHoursStart,
			End:     constants.DefaultQuietHoursEnd,
		},
		SmartReminders: constants.DefaultSmartReminders,
	}
}

// IntervalInRange reports whether minutes is a usable reminder interval.
// NaN is never in range.
func IntervalInRange(minutes float64) bool {
	return minutes >= constants.MinIntervalMinutes && minutes <= constants.MaxIntervalMinutes
}

// Validate checks the interval and quiet hour bounds
func (s ReminderSettings) Validate() error {
	if !IntervalInRange(s.IntervalMinutes) {
		return errors.NewValidation("interval", "%g minutes must be between %g and %g",
			s.IntervalMinutes, constants.MinIntervalMinutes, constants.MaxIntervalMinutes)
	}
	if s.QuietHours.Start < 0 || s.QuietHours.Start > 23 {
		return errors.NewValidation("quiet hours start", "%d must be between 0 and 23", s.QuietHours.Start)
	}
	if s.QuietHours.End < 0 || s.QuietHours.End > 23 {
		return errors.NewValidation("quiet hours end", "%d must be between 0 and 23", s.QuietHours.End)
	}
	return nil
}

// Message returns the trimmed custom message, or "" when none is set
func (s ReminderSettings) Message() string {
	return strings.TrimSpace(s.CustomMessage)
}

// Contains reports whether the given hour (0-23) falls inside the window.
// An equal start and end describe an empty window.
func (q QuietHours) Contains(hour int) bool {
	if !q.Enabled || q.Start == q.End {
		return false
	}
	if q.Start < q.End {
		return hour >= q.Start && hour < q.End
	}
	return hour >= q.Start || hour < q.End
}
