package swap

import (
	"errors"
	"time"
)

var (
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
	// ErrInstrumentSpec is returned for malformed schedule/notional/rate inputs.
	ErrInstrumentSpec = errors.New("invalid instrument spec")
	// ErrMissingFixing is returned when a floating period has fixed in the
	// past but no fixing is available from the feed.
	ErrMissingFixing = errors.New("missing reference rate fixing")
)

// DiscountCurve provides discount factors for valuation.
type DiscountCurve interface {
	DF(t time.Time) (float64, error)
}

// ProjectionCurve provides discount factors used to infer forward rates.
type ProjectionCurve interface {
	DF(t time.Time) (float64, error)
}

// SchedulePeriod is a cashflow period for a single leg.
//
// Dates are business-day adjusted per the leg convention.
type SchedulePeriod struct {
	StartDate   time.Time
	EndDate     time.Time
	PayDate     time.Time
	FixingDate  time.Time
	AccrualDays int
}

// PV contains present values for each leg and the net sum. Leg PVs are
// signed: a payer-fixed swap carries a negative fixed leg.
type PV struct {
	FixedLegPV float64
	FloatLegPV float64
	TotalPV    float64
}

// CashflowRow is one cashflow of a priced swap, returned as plain data for
// the caller to tabulate. Rate is a decimal; Amount and Value are in
// notional currency units.
type CashflowRow struct {
	Leg       string
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
	Accrual   float64
	Rate      float64
	Amount    float64
	Discount  float64
	Value     float64
}
