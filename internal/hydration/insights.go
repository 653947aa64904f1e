package hydration

import (
	"fmt"
	"math"

	"github.com/julianstephens/hydratemate/internal/constants"
)

// Motivation is the headline shown for a progress value
type Motivation struct {
	Emoji    string
	Title    string
	Subtitle string
}

// MotivationFor returns the motivational message for a progress percentage
func MotivationFor(progress float64) Motivation {
	switch {
	case progress >= 100:
		return Motivation{"🎉", "Goal Achieved!", "Amazing! You've reached your daily hydration goal!"}
	case progress >= 75:
		return Motivation{"🔥", "Almost There!", fmt.Sprintf("Just %d%% more to reach your goal!", 100-int(math.Round(progress)))}
	case progress >= 50:
		return Motivation{"💪", "Great Progress!", "You're halfway there! Keep up the good work!"}
	case progress >= 25:
		return Motivation{"🌟", "Good Start!", fmt.Sprintf("You're %d%% towards your daily goal", int(math.Round(progress)))}
	case progress > 0:
		return Motivation{"💧", "Getting Started!", "Every drop counts. Keep going!"}
	default:
		return Motivation{"🚰", "Time to Hydrate!", "Start your hydration journey today!"}
	}
}

// Level grades progress
type Level string

const (
	LevelCritical  Level = "Critical"
	LevelLow       Level = "Low"
	LevelFair      Level = "Fair"
	LevelGood      Level = "Good"
	LevelExcellent Level = "Excellent"
)

func LevelFor(progress float64) Level {
	switch {
	case progress >= 100:
		return LevelExcellent
	case progress >= 75:
		return LevelGood
	case progress >= 50:
		return LevelFair
	case progress >= 25:
		return LevelLow
	default:
		return LevelCritical
	}
}

// QuickAddSuggestions returns suggested amounts in ml for the local hour
func QuickAddSuggestions(hour int) []int {
	switch {
	case hour >= 6 && hour < 12:
		return []int{250, 500, 750}
	case hour >= 12 && hour < 18:
		return []int{200, 400, 600}
	case hour >= 18 && hour < 22:
		return []int{150, 300, 450}
	default:
		return []int{100, 200, 300}
	}
}

// Greeting returns a time-of-day greeting
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good Morning! 🌅"
	case hour < 17:
		return "Good Afternoon! ☀️"
	case hour < 21:
		return "Good Evening! 🌆"
	default:
		return "Good Night! 🌙"
	}
}

func DrinkEmoji(t constants.DrinkType) string {
	switch t {
	case constants.DrinkWater:
		return "💧"
	case constants.DrinkTea:
		return "🍵"
	case constants.DrinkCoffee:
		return "☕"
	case constants.DrinkJuice:
		return "🧃"
	case constants.DrinkSportsDrink:
		return "🥤"
	default:
		return "🥛"
	}
}
