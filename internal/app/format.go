package app

import (
	"fmt"
	"time"
)

var weekdayShort = [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

// WeekdayShort returns the two letter Russian abbreviation of d.
func WeekdayShort(d time.Weekday) string {
	return weekdayShort[d]
}

// FormatLessonDate renders a date the way it is shown to teachers, e.g. "23.02.2016 (вт)".
func FormatLessonDate(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format("02.01.2006"), WeekdayShort(t.Weekday()))
}
