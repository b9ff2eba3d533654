package utils

import (
	"time"
)

// YearFraction computes the year fraction between two dates under the given
// day count convention. Supported: ACT/360, ACT/365F, 30/360, 30E/360.
// Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365F":
		return Days(start, end) / 365.0
	case "30E/360":
		// Eurobond basis: both day-of-month components capped at 30.
		d1, d2 := start.Day(), end.Day()
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case "30/360":
		// US (bond basis): D2 is capped only when D1 is month-end.
		d1, d2 := start.Day(), end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	default:
		return Days(start, end) / 365.0
	}
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}
