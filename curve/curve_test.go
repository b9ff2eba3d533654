package curve_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewCurveDateOrder(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)

	// Node equal to the as-of date.
	if _, err := curve.NewCurve(asOf, []time.Time{asOf}); !errors.Is(err, curve.ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder for node at as-of, got %v", err)
	}

	// Non-increasing node sequence.
	nodes := []time.Time{date(2026, 1, 1), date(2026, 1, 1)}
	if _, err := curve.NewCurve(asOf, nodes); !errors.Is(err, curve.ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder for duplicate nodes, got %v", err)
	}
	nodes = []time.Time{date(2027, 1, 1), date(2026, 1, 1)}
	if _, err := curve.NewCurve(asOf, nodes); !errors.Is(err, curve.ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder for decreasing nodes, got %v", err)
	}
}

func TestCalibrationGuard(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	node := date(2026, 1, 1)
	crv, err := curve.NewCurve(asOf, []time.Time{node})
	if err != nil {
		t.Fatalf("NewCurve error: %v", err)
	}

	if crv.Calibrated() {
		t.Fatal("fresh curve should not be calibrated")
	}
	if _, err := crv.DF(node); !errors.Is(err, curve.ErrNotCalibrated) {
		t.Fatalf("expected ErrNotCalibrated, got %v", err)
	}

	// The unguarded accessor reads the seeded unit values.
	df, err := crv.UncalibratedDF(node)
	if err != nil {
		t.Fatalf("UncalibratedDF error: %v", err)
	}
	if df != 1.0 {
		t.Fatalf("seeded DF = %v, want 1.0", df)
	}

	crv.MarkCalibrated()
	if _, err := crv.DF(node); err != nil {
		t.Fatalf("DF after MarkCalibrated error: %v", err)
	}
}

func TestDFBeforeAsOf(t *testing.T) {
	t.Parallel()

	crv, err := curve.NewCurveFromDFs(date(2025, 1, 1), map[time.Time]float64{
		date(2026, 1, 1): 0.95,
	})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}
	if _, err := crv.DF(date(2024, 12, 31)); !errors.Is(err, curve.ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder, got %v", err)
	}
}

func TestDFAtNodes(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	crv, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{
		date(2026, 1, 1): 0.95,
		date(2027, 1, 1): 0.90,
	})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	df, err := crv.DF(asOf)
	if err != nil {
		t.Fatalf("DF(asOf) error: %v", err)
	}
	if df != 1.0 {
		t.Fatalf("DF(asOf) = %v, want exactly 1.0", df)
	}

	df, err = crv.DF(date(2026, 1, 1))
	if err != nil {
		t.Fatalf("DF(node) error: %v", err)
	}
	if df != 0.95 {
		t.Fatalf("DF(node) = %v, want exactly 0.95", df)
	}
}

func TestNewCurveFromDFsRejectsBadValues(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	for _, df := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		_, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{date(2026, 1, 1): df})
		if err == nil {
			t.Fatalf("expected error for DF %v", df)
		}
	}
	_, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{date(2024, 1, 1): 0.99})
	if !errors.Is(err, curve.ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder for node before as-of, got %v", err)
	}
}

func TestLogLinearInterpolation(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	d1, d2 := date(2026, 1, 1), date(2027, 1, 1)
	df1, df2 := 0.95, 0.90
	crv, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{d1: df1, d2: df2})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	// Interior query: log DF is linear in the ACT/365F year fraction.
	q := date(2026, 7, 2)
	t1 := utils.YearFraction(asOf, d1, "ACT/365F")
	t2 := utils.YearFraction(asOf, d2, "ACT/365F")
	tt := utils.YearFraction(asOf, q, "ACT/365F")
	want := math.Exp(((t2-tt)*math.Log(df1) + (tt-t1)*math.Log(df2)) / (t2 - t1))

	got, err := crv.DF(q)
	if err != nil {
		t.Fatalf("DF error: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("interpolated DF = %v, want %v", got, want)
	}

	// Interpolated values sit strictly between the bracketing nodes.
	if !(df2 < got && got < df1) {
		t.Fatalf("interpolated DF %v outside (%v, %v)", got, df2, df1)
	}
}

func TestFlatForwardExtrapolation(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	d1, d2 := date(2026, 1, 1), date(2027, 1, 1)
	df1, df2 := 0.95, 0.90
	crv, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{d1: df1, d2: df2})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	// Beyond the last node the last interval's forward rate carries on flat.
	q := date(2027, 12, 31)
	t1 := utils.YearFraction(asOf, d1, "ACT/365F")
	t2 := utils.YearFraction(asOf, d2, "ACT/365F")
	tt := utils.YearFraction(asOf, q, "ACT/365F")
	fwd := math.Log(df1/df2) / (t2 - t1)
	want := df2 * math.Exp(-fwd*(tt-t2))

	got, err := crv.DF(q)
	if err != nil {
		t.Fatalf("DF error: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("extrapolated DF = %v, want %v", got, want)
	}
	if !(got > 0 && got < df2) {
		t.Fatalf("extrapolated DF %v not in (0, %v)", got, df2)
	}
}

func TestMonotoneUnderConstantForward(t *testing.T) {
	t.Parallel()

	// Node DFs on a constant positive forward: 0.95 per year. The curve must
	// be non-increasing everywhere, including between nodes and beyond.
	asOf := date(2025, 1, 1)
	crv, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{
		date(2026, 1, 1): 0.95,
		date(2027, 1, 1): 0.95 * 0.95,
		date(2028, 1, 1): 0.95 * 0.95 * 0.95,
	})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	prev := math.Inf(1)
	for q := asOf; q.Before(date(2029, 1, 1)); q = q.AddDate(0, 1, 0) {
		df, err := crv.DF(q)
		if err != nil {
			t.Fatalf("DF(%s) error: %v", q.Format("2006-01-02"), err)
		}
		if df > prev {
			t.Fatalf("DF increased at %s: %v > %v", q.Format("2006-01-02"), df, prev)
		}
		prev = df
	}
}

func TestSetNodeDF(t *testing.T) {
	t.Parallel()

	crv, err := curve.NewCurve(date(2025, 1, 1), []time.Time{date(2026, 1, 1)})
	if err != nil {
		t.Fatalf("NewCurve error: %v", err)
	}

	if err := crv.SetNodeDF(0, 0.99); err == nil {
		t.Fatal("node 0 is pinned, expected error")
	}
	if err := crv.SetNodeDF(2, 0.99); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := crv.SetNodeDF(1, -0.1); err == nil {
		t.Fatal("expected error for non-positive DF")
	}
	if err := crv.SetNodeDF(1, math.NaN()); err == nil {
		t.Fatal("expected error for NaN DF")
	}

	if err := crv.SetNodeDF(1, 0.97); err != nil {
		t.Fatalf("SetNodeDF error: %v", err)
	}
	if got := crv.NodeDFs()[1]; got != 0.97 {
		t.Fatalf("NodeDFs[1] = %v, want 0.97", got)
	}
}

func TestCloneIndependence(t *testing.T) {
	t.Parallel()

	crv, err := curve.NewCurveFromDFs(date(2025, 1, 1), map[time.Time]float64{
		date(2026, 1, 1): 0.95,
	})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	clone := crv.Clone()
	if !clone.Calibrated() {
		t.Fatal("clone should inherit the calibrated flag")
	}
	if err := clone.SetNodeDF(1, 0.80); err != nil {
		t.Fatalf("SetNodeDF error: %v", err)
	}
	if got := crv.NodeDFs()[1]; got != 0.95 {
		t.Fatalf("original mutated through clone: DF = %v", got)
	}
}

func TestZeroRate(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 1)
	node := date(2026, 1, 1) // exactly 365 days: year fraction 1.0
	crv, err := curve.NewCurveFromDFs(asOf, map[time.Time]float64{node: 0.95})
	if err != nil {
		t.Fatalf("NewCurveFromDFs error: %v", err)
	}

	zr, err := crv.ZeroRate(node)
	if err != nil {
		t.Fatalf("ZeroRate error: %v", err)
	}
	want := -math.Log(0.95) * 100
	if math.Abs(zr-want) > 1e-12 {
		t.Fatalf("ZeroRate = %v, want %v", zr, want)
	}

	zr, err = crv.ZeroRate(asOf)
	if err != nil {
		t.Fatalf("ZeroRate(asOf) error: %v", err)
	}
	if zr != 0 {
		t.Fatalf("ZeroRate(asOf) = %v, want 0", zr)
	}
}
