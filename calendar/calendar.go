package calendar

import (
	"errors"
	"strings"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
)

// ErrUnknownCalendar is returned when a calendar name cannot be resolved.
var ErrUnknownCalendar = errors.New("unknown calendar")

// Modifier selects the business-day roll convention applied to a raw date.
type Modifier string

const (
	// Following rolls to the next business day.
	Following Modifier = "FOLLOWING"
	// ModifiedFollowing rolls to the next business day unless that crosses
	// a month boundary, in which case it rolls to the previous business day.
	ModifiedFollowing Modifier = "MODIFIED_FOLLOWING"
	// Unadjusted leaves the date untouched.
	Unadjusted Modifier = "UNADJUSTED"
)

var holidaySets = map[CalendarID]map[string]struct{}{
	TARGET: {},
	JPN:    {},
	USD:    {},
	KRW:    {},
}

func init() {
	usd := make(map[string]struct{}, len(usFederalHolidayList))
	for _, h := range usFederalHolidayList {
		usd[h] = struct{}{}
	}
	holidaySets[USD] = usd
}

// Resolve maps a calendar name to a registered CalendarID.
// Names are matched case-insensitively.
func Resolve(name string) (CalendarID, error) {
	id := CalendarID(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := holidaySets[id]; !ok {
		return "", ErrUnknownCalendar
	}
	return id, nil
}

// Register adds or replaces a holiday calendar. Dates are YYYY-MM-DD strings.
func Register(id CalendarID, holidays []string) {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	holidaySets[id] = set
}

func isHoliday(cal CalendarID, t time.Time) bool {
	set, ok := holidaySets[cal]
	if !ok {
		return false
	}
	_, hit := set[t.Format("2006-01-02")]
	return hit
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// AdjustWith rolls a date to a business day under the given modifier.
func AdjustWith(cal CalendarID, t time.Time, mod Modifier) time.Time {
	switch mod {
	case Following:
		return AdjustFollowing(cal, t)
	case Unadjusted:
		return t
	default:
		return Adjust(cal, t)
	}
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	// Move to the first day of the next month, then back to the prior business day.
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}
