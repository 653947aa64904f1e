package reminder

import (
	"math/rand/v2"
	"time"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/models"
)

var basePool = []string{
	"💧 Time to hydrate! Your body needs water to function properly.",
	"🌊 Don't forget to drink water! Stay refreshed and energized.",
	"💙 Hydration check! Keep up with your daily water intake.",
	"🚰 Reminder: Drink some water to stay healthy and focused.",
	"💧 Your body is calling for water! Take a sip and feel better.",
}

// ProgressLine returns the message matching a progress bucket
func ProgressLine(progress float64) string {
	switch {
	case progress < 25:
		return "🌱 Let's start hydrating! You're just getting started."
	case progress < 50:
		return "⭐ Great start! You're 25% towards your goal."
	case progress < 75:
		return "🎯 Halfway there! Keep up the great work."
	case progress < 100:
		return "🔥 Almost there! You're so close to your goal."
	default:
		return "🏆 Amazing! You've reached your goal. Stay hydrated!"
	}
}

// Message picks the reminder body. A custom message always wins; otherwise
// pick chooses among the base pool plus the progress line.
func Message(settings models.ReminderSettings, progress float64, pick func(n int) int) string {
	if custom := settings.Message(); custom != "" {
		return custom
	}
	if pick == nil {
		pick = rand.IntN
	}
	pool := make([]string, 0, len(basePool)+1)
	pool = append(pool, basePool...)
	pool = append(pool, ProgressLine(progress))
	return pool[pick(len(pool))]
}

// Metadata returns the data attached to every reminder
func Metadata(scheduledAt time.Time) map[string]string {
	return map[string]string{
		"type":        constants.NotificationType,
		"scheduledAt": scheduledAt.UTC().Format(time.RFC3339),
	}
}
