package statestore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// wireLayout is the canonical timestamp format: RFC 3339, UTC, milliseconds
const wireLayout = "2006-01-02T15:04:05.000Z07:00"

// zonedLayouts carry their own offset; localLayouts are read in the
// decoder's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC1123Z,
		time.RFC1123,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
	}
)

// Instant is a point in time with a tolerant JSON codec. It always writes
// canonical RFC 3339 UTC milliseconds and reads RFC 3339 / ISO-8601
// strings with or without a zone, epoch milliseconds as a number, and epoch
// milliseconds as a numeric string.
type Instant struct {
	time.Time
}

// NewInstant truncates t to the precision the wire format keeps
func NewInstant(t time.Time) Instant {
	return Instant{Time: t.Truncate(time.Millisecond)}
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.UTC().Format(wireLayout))
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		i.Time = time.Time{}
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		t, err := ParseInstant(str, time.Local)
		if err != nil {
			return err
		}
		i.Time = t
		return nil
	}
	t, err := parseEpochMillis(s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	i.Time = t
	return nil
}

// ParseInstant parses a loose timestamp string. Strings without a zone are
// read in loc; a bare date is UTC midnight.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}
	if isNumeric(s) {
		return parseEpochMillis(s)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' && i == 0:
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

func parseEpochMillis(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 8.64e15 {
		return time.Time{}, fmt.Errorf("epoch milliseconds out of range: %s", s)
	}
	whole, frac := math.Modf(f)
	return time.UnixMilli(int64(whole)).Add(time.Duration(frac * float64(time.Millisecond))).UTC(), nil
}
