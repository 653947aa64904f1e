package models

import "time"

// DailyStats aggregates one calendar day of intake
type DailyStats struct {
	Date        string           `json:"date"` // YYYY-MM-DD
	TotalIntake int              `json:"totalIntake"`
	Goal        int              `json:"goal"`
	Entries     []HydrationEntry `json:"entries"`
}

// GoalMet reports whether the day's intake reached its goal snapshot
func (d DailyStats) GoalMet() bool {
	return d.TotalIntake >= d.Goal
}

// LastEntryTime returns the most recent entry timestamp, or the zero time
func (d DailyStats) LastEntryTime() time.Time {
	var last time.Time
	for _, e := range d.Entries {
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	return last
}

// Clone returns a deep copy
func (d DailyStats) Clone() DailyStats {
	out := d
	out.Entries = append([]HydrationEntry(nil), d.Entries...)
	return out
}
