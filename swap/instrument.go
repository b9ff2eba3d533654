package swap

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/utils"
)

// Direction describes whether the trade pays or receives the fixed leg.
type Direction string

const (
	PayFixed     Direction = "PAY"
	ReceiveFixed Direction = "REC"
)

// IRS is a vanilla fixed-for-float interest rate swap. Terms and leg
// schedules are immutable after construction; the curves used for
// forecasting and discounting are passed explicitly at each call.
type IRS struct {
	Notional  float64
	FixedRate float64 // decimal, e.g. 0.054 == 5.40%
	Effective time.Time
	Maturity  time.Time
	Direction Direction
	FixedLeg  LegConvention
	FloatLeg  LegConvention

	fixedPeriods []SchedulePeriod
	floatPeriods []SchedulePeriod
}

// NewIRS validates the trade terms and generates both leg schedules.
// Schedule and convention errors surface here, not at pricing time.
func NewIRS(notional, fixedRate float64, effective, maturity time.Time, direction Direction, fixedLeg, floatLeg LegConvention) (*IRS, error) {
	if notional == 0 {
		return nil, fmt.Errorf("NewIRS: zero notional: %w", ErrInstrumentSpec)
	}
	if direction != PayFixed && direction != ReceiveFixed {
		return nil, fmt.Errorf("NewIRS: direction %q must be PAY or REC: %w", direction, ErrInstrumentSpec)
	}
	if fixedLeg.LegType != LegFixed {
		return nil, fmt.Errorf("NewIRS: fixed leg convention has type %s: %w", fixedLeg.LegType, ErrInstrumentSpec)
	}
	if floatLeg.LegType != LegFloating {
		return nil, fmt.Errorf("NewIRS: float leg convention has type %s: %w", floatLeg.LegType, ErrInstrumentSpec)
	}

	fixedPeriods, err := GenerateSchedule(effective, maturity, fixedLeg)
	if err != nil {
		return nil, fmt.Errorf("NewIRS: fixed leg: %w", err)
	}
	floatPeriods, err := GenerateSchedule(effective, maturity, floatLeg)
	if err != nil {
		return nil, fmt.Errorf("NewIRS: float leg: %w", err)
	}

	return &IRS{
		Notional:     notional,
		FixedRate:    fixedRate,
		Effective:    effective,
		Maturity:     maturity,
		Direction:    direction,
		FixedLeg:     fixedLeg,
		FloatLeg:     floatLeg,
		fixedPeriods: fixedPeriods,
		floatPeriods: floatPeriods,
	}, nil
}

// FixedPeriods returns the fixed leg schedule.
func (irs *IRS) FixedPeriods() []SchedulePeriod {
	out := make([]SchedulePeriod, len(irs.fixedPeriods))
	copy(out, irs.fixedPeriods)
	return out
}

// FloatPeriods returns the float leg schedule.
func (irs *IRS) FloatPeriods() []SchedulePeriod {
	out := make([]SchedulePeriod, len(irs.floatPeriods))
	copy(out, irs.floatPeriods)
	return out
}

func (irs *IRS) fixedSign() float64 {
	if irs.Direction == PayFixed {
		return -1.0
	}
	return 1.0
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

func forwardRate(proj ProjectionCurve, start, end time.Time, dayCount string) (float64, error) {
	dfStart, err := proj.DF(start)
	if err != nil {
		return 0, err
	}
	dfEnd, err := proj.DF(end)
	if err != nil {
		return 0, err
	}
	alpha := utils.YearFraction(start, end, dayCount)
	if alpha == 0 {
		return 0, nil
	}
	return (dfStart/dfEnd - 1.0) / alpha, nil
}

// floatRate returns the period's rate: the forward implied by the projection
// curve, or the historical fixing when the fixing date precedes valuation.
func (irs *IRS) floatRate(proj ProjectionCurve, p SchedulePeriod, valuation time.Time, fixings marketdata.Fixings) (float64, error) {
	if p.FixingDate.Before(valuation) {
		if fixings == nil {
			return 0, fmt.Errorf("floatRate: period fixed on %s: %w", p.FixingDate.Format("2006-01-02"), ErrMissingFixing)
		}
		pct, ok := fixings.RateOn(p.FixingDate)
		if !ok {
			return 0, fmt.Errorf("floatRate: no fixing on %s: %w", p.FixingDate.Format("2006-01-02"), ErrMissingFixing)
		}
		return pct / 100.0, nil
	}
	return forwardRate(proj, p.StartDate, p.EndDate, string(irs.FloatLeg.DayCount))
}

// PVByLeg prices both legs against the given curves as of the valuation
// date. Leg PVs are signed by direction: pay-fixed carries a negative fixed
// leg. Floating periods whose fixing date has passed take their rate from
// the fixings feed.
func (irs *IRS) PVByLeg(proj ProjectionCurve, disc DiscountCurve, valuation time.Time, fixings marketdata.Fixings) (PV, error) {
	if isNilInterface(disc) {
		return PV{}, fmt.Errorf("PVByLeg: discount: %w", ErrNilCurve)
	}
	if isNilInterface(proj) {
		return PV{}, fmt.Errorf("PVByLeg: projection: %w", ErrNilCurve)
	}

	sign := irs.fixedSign()

	fixedPV := 0.0
	for _, p := range irs.fixedPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FixedLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return PV{}, fmt.Errorf("PVByLeg: fixed leg: %w", err)
		}
		fixedPV += sign * irs.Notional * irs.FixedRate * accrual * df
	}

	floatPV := 0.0
	for _, p := range irs.floatPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		rate, err := irs.floatRate(proj, p, valuation, fixings)
		if err != nil {
			return PV{}, fmt.Errorf("PVByLeg: float leg: %w", err)
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FloatLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return PV{}, fmt.Errorf("PVByLeg: float leg: %w", err)
		}
		floatPV += -sign * irs.Notional * rate * accrual * df
	}

	return PV{FixedLegPV: fixedPV, FloatLegPV: floatPV, TotalPV: fixedPV + floatPV}, nil
}

// NPV is the net present value across both legs.
func (irs *IRS) NPV(proj ProjectionCurve, disc DiscountCurve, valuation time.Time, fixings marketdata.Fixings) (float64, error) {
	pv, err := irs.PVByLeg(proj, disc, valuation, fixings)
	if err != nil {
		return 0, fmt.Errorf("NPV: %w", err)
	}
	return pv.TotalPV, nil
}

// ParRate returns the fixed rate (decimal) at which the swap's NPV is zero:
// the forward float leg PV divided by the fixed leg annuity. Periods paying
// before the valuation date are excluded; past fixings do not enter a par
// rate, which is a forward-looking quote.
func (irs *IRS) ParRate(proj ProjectionCurve, disc DiscountCurve, valuation time.Time) (float64, error) {
	if isNilInterface(proj) || isNilInterface(disc) {
		return 0, fmt.Errorf("ParRate: %w", ErrNilCurve)
	}

	floatPV := 0.0
	for _, p := range irs.floatPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		fwd, err := forwardRate(proj, p.StartDate, p.EndDate, string(irs.FloatLeg.DayCount))
		if err != nil {
			return 0, fmt.Errorf("ParRate: %w", err)
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FloatLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return 0, fmt.Errorf("ParRate: %w", err)
		}
		floatPV += fwd * accrual * df
	}

	annuity := 0.0
	for _, p := range irs.fixedPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FixedLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return 0, fmt.Errorf("ParRate: %w", err)
		}
		annuity += accrual * df
	}
	if annuity == 0 {
		return 0, fmt.Errorf("ParRate: fixed leg annuity is zero")
	}

	rate := floatPV / annuity
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("ParRate: non-finite result")
	}
	return rate, nil
}

// AnalyticDelta is the closed-form sensitivity of NPV to a one basis point
// parallel shift in the fixed rate: the signed PV01 of the fixed leg.
func (irs *IRS) AnalyticDelta(disc DiscountCurve, valuation time.Time) (float64, error) {
	if isNilInterface(disc) {
		return 0, fmt.Errorf("AnalyticDelta: %w", ErrNilCurve)
	}

	annuity := 0.0
	for _, p := range irs.fixedPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FixedLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return 0, fmt.Errorf("AnalyticDelta: %w", err)
		}
		annuity += accrual * df
	}
	return irs.fixedSign() * irs.Notional * annuity * 1e-4, nil
}

// Cashflows returns every remaining cashflow of both legs as plain rows for
// the caller to format or tabulate.
func (irs *IRS) Cashflows(proj ProjectionCurve, disc DiscountCurve, valuation time.Time, fixings marketdata.Fixings) ([]CashflowRow, error) {
	if isNilInterface(proj) || isNilInterface(disc) {
		return nil, fmt.Errorf("Cashflows: %w", ErrNilCurve)
	}

	sign := irs.fixedSign()
	rows := make([]CashflowRow, 0, len(irs.fixedPeriods)+len(irs.floatPeriods))

	for _, p := range irs.fixedPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FixedLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return nil, fmt.Errorf("Cashflows: fixed leg: %w", err)
		}
		amount := sign * irs.Notional * irs.FixedRate * accrual
		rows = append(rows, CashflowRow{
			Leg:       string(LegFixed),
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			PayDate:   p.PayDate,
			Accrual:   accrual,
			Rate:      irs.FixedRate,
			Amount:    amount,
			Discount:  df,
			Value:     amount * df,
		})
	}

	for _, p := range irs.floatPeriods {
		if p.PayDate.Before(valuation) {
			continue
		}
		rate, err := irs.floatRate(proj, p, valuation, fixings)
		if err != nil {
			return nil, fmt.Errorf("Cashflows: float leg: %w", err)
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, string(irs.FloatLeg.DayCount))
		df, err := disc.DF(p.PayDate)
		if err != nil {
			return nil, fmt.Errorf("Cashflows: float leg: %w", err)
		}
		amount := -sign * irs.Notional * rate * accrual
		rows = append(rows, CashflowRow{
			Leg:       string(LegFloating),
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			PayDate:   p.PayDate,
			Accrual:   accrual,
			Rate:      rate,
			Amount:    amount,
			Discount:  df,
			Value:     amount * df,
		})
	}

	return rows, nil
}
