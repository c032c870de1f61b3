package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "вс": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "пн": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "вт": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "ср": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "чт": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "пт": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "сб": time.Saturday,
}

// ParseWeekday accepts English full or short names, Russian two letter
// abbreviations and ISO 8601 day numbers (1 is Monday, 7 is Sunday).
func ParseWeekday(val string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(val))
	if d, ok := weekdayNames[v]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 7 {
		return time.Weekday(n % 7), nil
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", val)
}

// ParseWeekdays parses a comma separated list of weekdays, ignoring
// duplicates and empty entries.
func ParseWeekdays(val string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(val, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}

// ExcludeWeekdays returns a predicate for Filter that rejects dates falling
// on any of days.
func ExcludeWeekdays(days ...time.Weekday) func(time.Time) bool {
	return func(t time.Time) bool {
		for _, d := range days {
			if t.Weekday() == d {
				return false
			}
		}
		return true
	}
}

// Reaches reports whether the unbounded sequence seeded at seed ever yields
// a date accepted by keep. keep must depend on the weekday only. The weekday
// of a date depends only on the weekday of the previous one, so the pattern
// repeats within fourteen steps.
func Reaches(seed time.Time, step StepPolicy, keep func(time.Time) bool) bool {
	cursor := Cursor{Current: DateOf(seed)}
	for i := 0; i < 14; i++ {
		var date time.Time
		cursor, date, _ = Advance(cursor, step, Unbounded())
		if keep(date) {
			return true
		}
	}
	return false
}
