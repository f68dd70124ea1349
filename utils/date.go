package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// JakartaTZ is used when the configured zone cannot be loaded (no tzdata on
// the host).
var JakartaTZ = time.FixedZone("WIB", 7*60*60)

// LoadLocation resolves an IANA zone name. "Asia/Jakarta" falls back to a
// fixed UTC+7 zone when tzdata is missing.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return JakartaTZ, nil
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == "Asia/Jakarta" {
		return JakartaTZ, nil
	}
	return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns [start, end) of t's calendar day in loc. AddDate keeps
// DST days correct.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// EndOfDay is the last representable instant of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	_, end := DayBounds(t, loc)
	return end.Add(-time.Nanosecond)
}

func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate reads a yyyy-MM-dd string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", s)
	}
	return t, nil
}
