package reminder

import (
	"time"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// Trigger is the outcome of a trigger computation
type Trigger struct {
	// At is the instant the reminder should fire
	At time.Time
	// Anchor is the instant the interval was measured from
	Anchor time.Time
	// Anchored is set when a recent intake was used as the anchor
	Anchored bool
	// Deferred is set when quiet hours moved the trigger to their end
	Deferred bool
}

// MinLead returns the shortest lead time the platform delivers reliably.
// Unknown platforms get the most conservative floor.
func MinLead(p constants.Platform) time.Duration {
	if d, ok := constants.PlatformMinLead[p]; ok {
		return d
	}
	return constants.PlatformMinLead[constants.PlatformIOS]
}

// Interval converts the fractional minute setting to a duration
func Interval(settings models.ReminderSettings) time.Duration {
	return time.Duration(settings.IntervalMinutes * float64(time.Minute))
}

// ComputeTrigger returns when the next reminder should fire.
//
// The delay is the configured interval, never shorter than floor. With smart
// reminders on, an intake less than SmartRecencyThreshold before now becomes
// the anchor, as long as the resulting trigger is still at least floor away.
// A trigger that lands inside enabled quiet hours is moved to the first
// end:00 strictly after it.
func ComputeTrigger(now time.Time, settings models.ReminderSettings, lastIntake time.Time, floor time.Duration, loc *time.Location) Trigger {
	if loc == nil {
		loc = time.Local
	}
	delay := Interval(settings)
	if delay < floor {
		delay = floor
	}

	t := Trigger{Anchor: now}
	if settings.SmartReminders && !lastIntake.IsZero() {
		since := now.Sub(lastIntake)
		if since >= 0 && since < constants.SmartRecencyThreshold && !lastIntake.Add(delay).Before(now.Add(floor)) {
			t.Anchor = lastIntake
			t.Anchored = true
		}
	}
	t.At = t.Anchor.Add(delay)

	if q := settings.QuietHours; q.Contains(t.At.In(loc).Hour()) {
		t.At = utils.NextHourAfter(t.At, q.End, loc)
		t.Deferred = true
	}
	return t
}
