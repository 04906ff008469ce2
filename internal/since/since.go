// Package since parses the lower time bounds accepted by link filters.
package since

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how YOURLS reports link creation times.
const TimestampLayout = "2006-01-02 15:04:05"

// "2h ago", "30m", "1d", "2w", "1mo ago"
var agoRegex = regexp.MustCompile(`^(\d+)\s*(mo|w|d|h|m)(\s+ago)?$`)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Parse turns expr into an instant at or before now. It accepts durations
// back from now ("3d", "2h ago"), "today", "yesterday", a weekday name
// (its most recent occurrence), a YYYY-MM-DD date, a YOURLS timestamp and
// RFC3339.
func Parse(expr string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	input := strings.ToLower(raw)

	switch input {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if wd, ok := weekdays[strings.TrimPrefix(input, "last ")]; ok {
		base := startOfDay(now)
		back := (int(base.Weekday()) - int(wd) + 7) % 7
		return base.AddDate(0, 0, -back), nil
	}

	if m := agoRegex.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid relative time %q", raw)
		}
		return back(now, n, m[2]), nil
	}

	for _, layout := range []string{"2006-01-02", TimestampLayout} {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time expression %q (try 7d, yesterday or 2024-01-31)", raw)
}

// Timestamp parses a link creation time reported by the server, in loc.
func Timestamp(s string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), loc)
	return t, err == nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func back(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "mo":
		return now.AddDate(0, -n, 0)
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "d":
		return now.AddDate(0, 0, -n)
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	default:
		return now.Add(-time.Duration(n) * time.Minute)
	}
}
