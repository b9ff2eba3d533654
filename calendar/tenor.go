package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTenor is returned when a tenor string cannot be parsed.
var ErrInvalidTenor = errors.New("invalid tenor")

// TenorUnit is the calendar period unit of a tenor.
type TenorUnit byte

const (
	UnitDay   TenorUnit = 'D'
	UnitWeek  TenorUnit = 'W'
	UnitMonth TenorUnit = 'M'
	UnitYear  TenorUnit = 'Y'
)

// Tenor is a relative period such as 1W, 3M or 10Y. Pure value, stateless.
type Tenor struct {
	N    int
	Unit TenorUnit
}

// ParseTenor parses tenor strings like "1W", "3M", "18M", "10Y".
// The count must be a positive integer.
func ParseTenor(s string) (Tenor, error) {
	raw := strings.TrimSpace(strings.ToUpper(s))
	if len(raw) < 2 {
		return Tenor{}, fmt.Errorf("%w: %q", ErrInvalidTenor, s)
	}
	unit := TenorUnit(raw[len(raw)-1])
	switch unit {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
	default:
		return Tenor{}, fmt.Errorf("%w: %q", ErrInvalidTenor, s)
	}
	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n <= 0 {
		return Tenor{}, fmt.Errorf("%w: %q", ErrInvalidTenor, s)
	}
	return Tenor{N: n, Unit: unit}, nil
}

func (t Tenor) String() string {
	return fmt.Sprintf("%d%c", t.N, t.Unit)
}

// Years returns the approximate tenor length in years, used for ordering.
func (t Tenor) Years() float64 {
	switch t.Unit {
	case UnitDay:
		return float64(t.N) / 365.0
	case UnitWeek:
		return float64(t.N) * 7.0 / 365.0
	case UnitMonth:
		return float64(t.N) / 12.0
	default:
		return float64(t.N)
	}
}

// addMonths behaves like Excel's EDATE, clamping to the end of the target
// month instead of letting Go normalize Jan 31 + 1M into March.
func addMonths(t time.Time, months int) time.Time {
	d := t.AddDate(0, months, 0)
	want := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if d.Month() == want.Month() && d.Year() == want.Year() {
		return d
	}
	for d.Month() != want.Month() || d.Year() != want.Year() {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AddTenor adds a tenor to a base date and rolls the result to a business
// day under the given modifier.
//
// Month and year tenors anchor to month end: when the base date is the last
// business day of its month, the result is the last business day of the
// target month. Day and week tenors are plain calendar-day offsets.
func AddTenor(cal CalendarID, base time.Time, tenor Tenor, mod Modifier) time.Time {
	var raw time.Time
	switch tenor.Unit {
	case UnitDay:
		raw = base.AddDate(0, 0, tenor.N)
	case UnitWeek:
		raw = base.AddDate(0, 0, 7*tenor.N)
	case UnitMonth:
		raw = addMonths(base, tenor.N)
	default: // UnitYear
		raw = addMonths(base, 12*tenor.N)
	}

	if (tenor.Unit == UnitMonth || tenor.Unit == UnitYear) && mod != Unadjusted && IsEndOfMonth(cal, base) {
		return LastBusinessDayOfMonth(cal, raw)
	}
	return AdjustWith(cal, raw, mod)
}
