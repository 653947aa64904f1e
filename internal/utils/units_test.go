package utils

import (
	"math"
	"testing"

	"github.com/julianstephens/hydratemate/internal/constants"
)

func TestConversions(t *testing.T) {
	if got := OzToMl(8); got != 237 {
		t.Errorf("OzToMl(8) = %d, want 237", got)
	}
	if got := MlToOz(1000); math.Abs(got-33.814) > 0.001 {
		t.Errorf("MlToOz(1000) = %f", got)
	}
	if got := ToMl(250, constants.UnitsMl); got != 250 {
		t.Errorf("ToMl(250 ml) = %d", got)
	}
	if got := ToMl(10, constants.UnitsOz); got != 296 {
		t.Errorf("ToMl(10 oz) = %d, want 296", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		ml    int
		units constants.Units
		want  string
	}{
		{250, constants.UnitsMl, "250 ml"},
		{1500, constants.UnitsMl, "1,500 ml"},
		{1000, constants.UnitsOz, "33.8 oz"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.ml, tt.units); got != tt.want {
			t.Errorf("FormatAmount(%d, %s) = %q, want %q", tt.ml, tt.units, got, tt.want)
		}
	}
}
