package utils

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// SearchDate returns the index of the first date >= target in a sorted slice,
// or len(dates) if all dates are before target.
func SearchDate(dates []time.Time, target time.Time) int {
	return sort.Search(len(dates), func(i int) bool {
		return !dates[i].Before(target)
	})
}

// BracketIndexes returns the indexes (i, i+1) of the two dates in a sorted
// slice that bracket target. If target is outside the range, the nearest
// boundary pair is returned so callers can extrapolate.
func BracketIndexes(dates []time.Time, target time.Time) (int, int) {
	if len(dates) < 2 {
		panic("BracketIndexes: need at least 2 dates")
	}
	i := SearchDate(dates, target)
	if i <= 0 {
		return 0, 1
	}
	if i >= len(dates) {
		return len(dates) - 2, len(dates) - 1
	}
	return i - 1, i
}

// ParseDate converts a YYYY-MM-DD string to time.Time.
func ParseDate(s string) (time.Time, error) {
	const layout = "2006-01-02"
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// Days returns the whole-and-fractional day count between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises.
func AddMonth(t time.Time, months int) time.Time {
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	d := t.AddDate(0, months, 0)
	if d.Month() == target.Month() && d.Year() == target.Year() {
		return d
	}
	for d.Month() != target.Month() || d.Year() != target.Year() {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// RoundTo rounds a float to the specified decimal places.
func RoundTo(val float64, decimals uint32) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
