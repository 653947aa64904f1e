package models

import (
	"time"

	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
)

// HydrationEntry is a single logged intake event. Amounts are millilitres.
type HydrationEntry struct {
	ID        string              `json:"id"`
	Amount    int                 `json:"amount"`
	Timestamp time.Time           `json:"timestamp"`
	Type      constants.DrinkType `json:"type"`
}

// ValidDrinkType reports whether t is one of the known drink types
func ValidDrinkType(t constants.DrinkType) bool {
	for _, known := range constants.DrinkTypes {
		if known == t {
			return true
		}
	}
	return false
}

// ParseDrinkType resolves user input ("water", "sports-drink", "Sports Drink")
// to a drink type.
func ParseDrinkType(s string) (constants.DrinkType, error) {
	norm := normalizeDrinkName(s)
	if norm == "" {
		return constants.DrinkWater, nil
	}
	for _, known := range constants.DrinkTypes {
		if normalizeDrinkName(string(known)) == norm {
			return known, nil
		}
	}
	return "", errors.NewValidation("type", "unknown drink type %q", s)
}

func normalizeDrinkName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidateAmount checks an intake amount in millilitres
func ValidateAmount(amount int) error {
	if amount <= 0 {
		return errors.NewValidation("amount", "must be greater than 0")
	}
	if amount > constants.MaxIntakeAmount {
		return errors.NewValidation("amount", "must not exceed %d ml", constants.MaxIntakeAmount)
	}
	return nil
}

// SumAmounts returns the total volume of the given entries
func SumAmounts(entries []HydrationEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Amount
	}
	return total
}
