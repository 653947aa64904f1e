package constants

import "time"

const (
	// Goal bounds (ml)
	DefaultDailyGoal = 2000
	MinDailyGoal     = 500
	MaxDailyGoal     = 5000

	// Intake bounds (ml). Amounts above the soft limit ask for confirmation.
	MaxIntakeAmount        = 10000
	LargeIntakeSoftLimit   = 3000
	LargeIntakeSoftLimitOz = 100

	// Reminder defaults
	DefaultRemindersEnabled  = true
	DefaultIntervalMinutes   = 120.0
	MinIntervalMinutes       = 0.5
	MaxIntervalMinutes       = 1440.0
	DefaultQuietHoursEnabled = true
	DefaultQuietHoursStart   = 22
	DefaultQuietHoursEnd     = 6
	DefaultSmartReminders    = true

	// SmartRecencyThreshold is how recent an intake must be for smart
	// reminders to anchor the next trigger on it.
	SmartRecencyThreshold = 30 * time.Minute

	// WeeklyWindowDays is the number of calendar days averaged by WeeklyAverage
	WeeklyWindowDays = 7

	// Daemon
	DefaultWatchDebounce = 500 * time.Millisecond
	RolloverHour         = 0
	RolloverMinute       = 0
	RolloverSecond       = 5

	DefaultUnits    = UnitsMl
	DefaultPlatform = PlatformDesktop
	DefaultTimezone = "Local"
)
