package curve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/utils"
)

// curveDayCount is the time basis for interpolation and zero rates.
// ACT/365F is the standard convention for discount curve time axes
// regardless of the currency's coupon accrual basis.
const curveDayCount = "ACT/365F"

var (
	// ErrDateOrder is returned for queries before the as-of date and for
	// node sequences that are not strictly increasing.
	ErrDateOrder = errors.New("curve date order violation")
	// ErrNotCalibrated is returned when discount factors are read from a
	// curve whose node values have not converged through calibration.
	ErrNotCalibrated = errors.New("curve not calibrated")
)

// Curve is a discount-factor function over time defined by node points and
// log-linear interpolation on discount factors.
//
// Nodes live in an indexed arena: parallel date/value slices ordered by
// strictly increasing date. Node 0 is the as-of date and its discount factor
// is pinned at 1.0. The structure (dates) is fixed after construction; only
// node values mutate, and only through SetNodeDF during calibration.
type Curve struct {
	asOf       time.Time
	dates      []time.Time
	dfs        []float64
	calibrated bool
}

// NewCurve creates an uncalibrated curve with unit discount factors at the
// given node dates. Node dates must be strictly increasing and strictly
// after the as-of date; the as-of date itself becomes node 0.
func NewCurve(asOf time.Time, nodeDates []time.Time) (*Curve, error) {
	dates := make([]time.Time, 0, len(nodeDates)+1)
	dates = append(dates, asOf)
	prev := asOf
	for _, d := range nodeDates {
		if !d.After(prev) {
			return nil, fmt.Errorf("NewCurve: node %s: %w", d.Format("2006-01-02"), ErrDateOrder)
		}
		dates = append(dates, d)
		prev = d
	}

	dfs := make([]float64, len(dates))
	for i := range dfs {
		dfs[i] = 1.0
	}
	return &Curve{asOf: asOf, dates: dates, dfs: dfs}, nil
}

// NewCurveFromDFs creates a calibrated curve from explicitly provided
// discount factors, keyed by node date. Intended for diagnostics and tests
// where valuation is isolated from calibration by injecting exact values
// from another system. The as-of date is added as node 0 when absent.
func NewCurveFromDFs(asOf time.Time, nodes map[time.Time]float64) (*Curve, error) {
	dates := make([]time.Time, 0, len(nodes)+1)
	for d := range nodes {
		if d.Equal(asOf) {
			continue
		}
		if d.Before(asOf) {
			return nil, fmt.Errorf("NewCurveFromDFs: node %s: %w", d.Format("2006-01-02"), ErrDateOrder)
		}
		dates = append(dates, d)
	}
	utils.SortDates(dates)

	c := &Curve{
		asOf:       asOf,
		dates:      append([]time.Time{asOf}, dates...),
		dfs:        make([]float64, len(dates)+1),
		calibrated: true,
	}
	c.dfs[0] = 1.0
	for i, d := range dates {
		df := nodes[d]
		if !(df > 0) || math.IsInf(df, 0) {
			return nil, fmt.Errorf("NewCurveFromDFs: node %s: discount factor %v not strictly positive", d.Format("2006-01-02"), df)
		}
		c.dfs[i+1] = df
	}
	return c, nil
}

// AsOf returns the curve's as-of (valuation anchor) date.
func (c *Curve) AsOf() time.Time {
	return c.asOf
}

// NodeDates returns the ordered node dates, including the as-of node.
func (c *Curve) NodeDates() []time.Time {
	out := make([]time.Time, len(c.dates))
	copy(out, c.dates)
	return out
}

// NodeDFs returns the current node discount factors, regardless of
// calibration state. This is the explicit opt-in for reading partial values.
func (c *Curve) NodeDFs() []float64 {
	out := make([]float64, len(c.dfs))
	copy(out, c.dfs)
	return out
}

// NodeCount returns the number of nodes including the as-of node.
func (c *Curve) NodeCount() int {
	return len(c.dates)
}

// Calibrated reports whether the curve's node values have converged.
func (c *Curve) Calibrated() bool {
	return c.calibrated
}

// MarkCalibrated flags the curve as converged. Called by the solver once
// calibration succeeds; any other use defeats the stale-curve guard.
func (c *Curve) MarkCalibrated() {
	c.calibrated = true
}

// SetNodeDF mutates a single node's discount factor. Node 0 is pinned at 1.0
// and cannot be set. Used by the solver during calibration iterations.
func (c *Curve) SetNodeDF(i int, df float64) error {
	if i <= 0 || i >= len(c.dfs) {
		return fmt.Errorf("SetNodeDF: node index %d out of range (node 0 is pinned)", i)
	}
	if !(df > 0) || math.IsInf(df, 0) || math.IsNaN(df) {
		return fmt.Errorf("SetNodeDF: node %d: discount factor %v not strictly positive", i, df)
	}
	c.dfs[i] = df
	return nil
}

// Clone returns an independent copy sharing no mutable state.
func (c *Curve) Clone() *Curve {
	dates := make([]time.Time, len(c.dates))
	copy(dates, c.dates)
	dfs := make([]float64, len(c.dfs))
	copy(dfs, c.dfs)
	return &Curve{asOf: c.asOf, dates: dates, dfs: dfs, calibrated: c.calibrated}
}

// DF returns the discount factor at t.
//
// Between nodes the curve interpolates log-linearly on discount factors over
// ACT/365F year fractions, which keeps DF strictly positive and the forward
// rate constant within each node interval. Beyond the last node the curve
// extrapolates flat on the last interval's instantaneous forward rate.
//
// Queries before the as-of date return ErrDateOrder; queries against an
// uncalibrated curve return ErrNotCalibrated rather than a silently wrong
// unit discount factor.
func (c *Curve) DF(t time.Time) (float64, error) {
	if !c.calibrated {
		return 0, fmt.Errorf("DF: %w", ErrNotCalibrated)
	}
	return c.UncalibratedDF(t)
}

// UncalibratedDF is DF without the calibration guard. It exists for the
// solver's own repricing loop and for callers who explicitly want to inspect
// a partially converged state.
func (c *Curve) UncalibratedDF(t time.Time) (float64, error) {
	if t.Before(c.asOf) {
		return 0, fmt.Errorf("UncalibratedDF: %s before as-of %s: %w",
			t.Format("2006-01-02"), c.asOf.Format("2006-01-02"), ErrDateOrder)
	}
	return c.interpolate(t), nil
}

func (c *Curve) interpolate(t time.Time) float64 {
	i := utils.SearchDate(c.dates, t)
	if i < len(c.dates) && c.dates[i].Equal(t) {
		return c.dfs[i]
	}
	if len(c.dates) < 2 {
		return c.dfs[0]
	}

	lo, hi := utils.BracketIndexes(c.dates, t)
	df1, df2 := c.dfs[lo], c.dfs[hi]
	t1 := utils.YearFraction(c.asOf, c.dates[lo], curveDayCount)
	t2 := utils.YearFraction(c.asOf, c.dates[hi], curveDayCount)
	tt := utils.YearFraction(c.asOf, t, curveDayCount)
	if t2 == t1 {
		return df1
	}

	fwd := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-fwd*(tt-t1))
}

// ZeroRate returns the continuously compounded zero rate at t, in percent.
func (c *Curve) ZeroRate(t time.Time) (float64, error) {
	df, err := c.DF(t)
	if err != nil {
		return 0, err
	}
	yf := utils.YearFraction(c.asOf, t, curveDayCount)
	if yf == 0 {
		return 0, nil
	}
	return -math.Log(df) / yf * 100, nil
}
