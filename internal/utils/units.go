package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/julianstephens/hydratemate/internal/constants"
)

var printer = message.NewPrinter(language.English)

// MlToOz converts millilitres to fluid ounces
func MlToOz(ml int) float64 {
	return float64(ml) * constants.OzPerMl
}

// OzToMl converts fluid ounces to whole millilitres
func OzToMl(oz float64) int {
	return int(math.Round(oz * constants.MlPerOz))
}

// ToMl converts an amount entered in the given units to millilitres
func ToMl(value float64, units constants.Units) int {
	if units == constants.UnitsOz {
		return OzToMl(value)
	}
	return int(math.Round(value))
}

// FormatAmount renders a millilitre amount in the display units, with digit
// grouping: "1,500 ml", "50.7 oz".
func FormatAmount(ml int, units constants.Units) string {
	if units == constants.UnitsOz {
		return printer.Sprintf("%.1f oz", MlToOz(ml))
	}
	return printer.Sprintf("%d ml", ml)
}
