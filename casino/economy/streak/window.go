package streak

import "time"

// Window math for claim cooldowns. Daily windows start at a configured
// local hour in a configured timezone; hourly windows start at the top
// of each hour. All comparisons happen on window start times so clock
// skew within a window never matters.

// DailyWindowStart returns the start of the daily window containing t,
// in loc. A claim at 02:59 with reset hour 3 belongs to the previous
// calendar day's window.
func DailyWindowStart(t time.Time, resetHour int, loc *time.Location) time.Time {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), resetHour, 0, 0, 0, loc)
	if lt.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// HourlyWindowStart truncates t to the top of its hour in loc.
func HourlyWindowStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, loc)
}

// DailyWindowsBetween counts full daily windows between two claim
// times. 0 means same window, 1 means consecutive windows.
func DailyWindowsBetween(last, now time.Time, resetHour int, loc *time.Location) int {
	a := DailyWindowStart(last, resetHour, loc)
	b := DailyWindowStart(now, resetHour, loc)
	if !b.After(a) {
		return 0
	}
	// Count in calendar days to survive DST transitions.
	days := 0
	for cur := a; cur.Before(b); cur = cur.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// HourlyWindowsBetween counts full hourly windows between two claim
// times.
func HourlyWindowsBetween(last, now time.Time, loc *time.Location) int {
	a := HourlyWindowStart(last, loc)
	b := HourlyWindowStart(now, loc)
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a) / time.Hour)
}

// PreviousDailyWindowStart is the start of the window immediately
// before the one containing t. Insurance rewrites the last claim to
// just inside this window, making the streak look unbroken.
func PreviousDailyWindowStart(t time.Time, resetHour int, loc *time.Location) time.Time {
	return DailyWindowStart(t, resetHour, loc).AddDate(0, 0, -1)
}

// PreviousHourlyWindowStart is the start of the hour before the one
// containing t.
func PreviousHourlyWindowStart(t time.Time, loc *time.Location) time.Time {
	return HourlyWindowStart(t, loc).Add(-time.Hour)
}
