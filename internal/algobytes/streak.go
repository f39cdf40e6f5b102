package algobytes

import "time"

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// NextStreak applies the calendar-day rule: same day keeps the streak, the
// day after last-played extends it, anything else restarts it at one.
// lastPlayed may be a bare date or an RFC 3339 timestamp.
func NextStreak(current int, lastPlayed *string, today string) int {
	if lastPlayed == nil || *lastPlayed == "" {
		return 1
	}
	last, ok := calendarDay(*lastPlayed)
	if !ok {
		return 1
	}
	day, ok := calendarDay(today)
	if !ok {
		return 1
	}
	switch {
	case last.Equal(day):
		return current
	case last.AddDate(0, 0, 1).Equal(day):
		return current + 1
	}
	return 1
}

func calendarDay(s string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
