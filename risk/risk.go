// Package risk computes market-rate sensitivities of priced instruments by
// chaining node-level repricing through the solver's calibration Jacobian.
package risk

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/swap"
)

// bpBump is the market-rate perturbation (1bp, in rate units) used for the
// gamma finite differences.
const bpBump = 1e-4

// Delta computes the instrument's sensitivity to a one basis point move in
// each calibration instrument's market rate, keyed by calibration label.
//
// The node-space gradient dNPV/dx is measured by central-difference bumps of
// each node discount factor (restored after probing), then projected into
// market-rate space through the inverse calibration Jacobian: since the
// calibration root satisfies parRate(x) = r, dx/dr = J^-1 and
// dNPV/dr = (J^-1)^T (dNPV/dx).
func Delta(inst *swap.IRS, s *solver.Solver, fixings marketdata.Fixings) (map[string]float64, error) {
	if !s.Calibrated() {
		return nil, fmt.Errorf("Delta: %w", curve.ErrNotCalibrated)
	}
	crv := s.Curve()
	n := crv.NodeCount() - 1
	if len(s.Labels()) != n {
		return nil, fmt.Errorf("Delta: %d calibration instruments for %d free nodes: %w",
			len(s.Labels()), n, solver.ErrSingularJacobian)
	}

	valuation := crv.AsOf()
	bump := s.Config().BumpSize
	dfs := crv.NodeDFs()

	grad := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		base := dfs[j+1]
		h := base * bump

		if err := crv.SetNodeDF(j+1, base+h); err != nil {
			return nil, fmt.Errorf("Delta: %w", err)
		}
		up, errUp := inst.NPV(crv, crv, valuation, fixings)

		if err := crv.SetNodeDF(j+1, base-h); err != nil {
			_ = crv.SetNodeDF(j+1, base)
			return nil, fmt.Errorf("Delta: %w", err)
		}
		down, errDown := inst.NPV(crv, crv, valuation, fixings)

		// Restore the converged value before acting on any error.
		if err := crv.SetNodeDF(j+1, base); err != nil {
			return nil, fmt.Errorf("Delta: %w", err)
		}
		if errUp != nil {
			return nil, fmt.Errorf("Delta: %w", errUp)
		}
		if errDown != nil {
			return nil, fmt.Errorf("Delta: %w", errDown)
		}
		grad.SetVec(j, (up-down)/(2*h))
	}

	var sens mat.VecDense
	if err := sens.SolveVec(s.Jacobian().T(), grad); err != nil {
		return nil, fmt.Errorf("Delta: %w: %v", solver.ErrSingularJacobian, err)
	}

	out := make(map[string]float64, n)
	for k, label := range s.Labels() {
		out[label] = sens.AtVec(k) * bpBump
	}
	return out, nil
}

// Gamma computes second-order cross-sensitivities to joint one basis point
// moves in pairs of market rates, returned as a symmetric matrix in the
// solver's label order (per bp squared).
//
// Each probe bumps the targets, recalibrates a cloned curve, and reprices
// the instrument; the solver's converged state is never mutated. The cost is
// O(k^2) recalibrations in the number of calibration instruments.
func Gamma(inst *swap.IRS, s *solver.Solver, fixings marketdata.Fixings) ([][]float64, []string, error) {
	if !s.Calibrated() {
		return nil, nil, fmt.Errorf("Gamma: %w", curve.ErrNotCalibrated)
	}

	labels := s.Labels()
	k := len(labels)
	valuation := s.Curve().AsOf()

	base, err := inst.NPV(s.Curve(), s.Curve(), valuation, fixings)
	if err != nil {
		return nil, nil, fmt.Errorf("Gamma: %w", err)
	}

	// npvAt recalibrates a clone of the converged curve against bumped
	// targets and reprices. The clone starts from the converged node values,
	// so each recalibration converges in a handful of iterations.
	npvAt := func(bumps map[int]float64) (float64, error) {
		targets := s.Targets()
		for idx, b := range bumps {
			targets[idx] += b
		}
		clone := s.Curve().Clone()
		sub, err := solver.New(clone, s.Instruments(), labels, targets, s.Config())
		if err != nil {
			return 0, err
		}
		if _, err := sub.Calibrate(); err != nil {
			return 0, err
		}
		return inst.NPV(clone, clone, valuation, fixings)
	}

	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
	}

	for i := 0; i < k; i++ {
		up, err := npvAt(map[int]float64{i: bpBump})
		if err != nil {
			return nil, nil, fmt.Errorf("Gamma: %w", err)
		}
		down, err := npvAt(map[int]float64{i: -bpBump})
		if err != nil {
			return nil, nil, fmt.Errorf("Gamma: %w", err)
		}
		out[i][i] = up - 2*base + down

		for j := i + 1; j < k; j++ {
			pp, err := npvAt(map[int]float64{i: bpBump, j: bpBump})
			if err != nil {
				return nil, nil, fmt.Errorf("Gamma: %w", err)
			}
			pm, err := npvAt(map[int]float64{i: bpBump, j: -bpBump})
			if err != nil {
				return nil, nil, fmt.Errorf("Gamma: %w", err)
			}
			mp, err := npvAt(map[int]float64{i: -bpBump, j: bpBump})
			if err != nil {
				return nil, nil, fmt.Errorf("Gamma: %w", err)
			}
			mm, err := npvAt(map[int]float64{i: -bpBump, j: -bpBump})
			if err != nil {
				return nil, nil, fmt.Errorf("Gamma: %w", err)
			}
			cross := (pp - pm - mp + mm) / 4
			out[i][j] = cross
			out[j][i] = cross
		}
	}

	return out, labels, nil
}
