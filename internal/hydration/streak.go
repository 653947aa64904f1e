package hydration

import (
	"github.com/julianstephens/hydratemate/internal/models"
	"github.com/julianstephens/hydratemate/internal/utils"
)

// computeStreak counts consecutive days, ending today or yesterday, whose
// intake met their goal. Today only counts once it is met; a day without a
// record ends the streak.
func computeStreak(stats []models.DailyStats, today string) int {
	byDate := make(map[string]models.DailyStats, len(stats))
	for _, d := range stats {
		byDate[d.Date] = d
	}

	day := today
	if d, ok := byDate[today]; !ok || !d.GoalMet() {
		prev, err := utils.AddDays(today, -1)
		if err != nil {
			return 0
		}
		day = prev
	}

	streak := 0
	for {
		d, ok := byDate[day]
		if !ok || !d.GoalMet() {
			return streak
		}
		streak++
		prev, err := utils.AddDays(day, -1)
		if err != nil {
			return streak
		}
		day = prev
	}
}
