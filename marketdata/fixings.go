package marketdata

import "time"

// Fixings supplies historical floating-rate fixings, used to price floating
// periods whose fixing date has already passed.
type Fixings interface {
	RateOn(date time.Time) (float64, bool)
}

// MapFixings is a static map-backed implementation for development/testing.
// Rates are in percent, keyed by YYYY-MM-DD fixing date.
type MapFixings struct {
	rates map[string]float64
}

func NewMapFixings(rates map[string]float64) *MapFixings {
	return &MapFixings{rates: rates}
}

func (m *MapFixings) RateOn(date time.Time) (float64, bool) {
	val, ok := m.rates[date.Format("2006-01-02")]
	return val, ok
}
