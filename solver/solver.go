package solver

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/swap"
)

// ErrSingularJacobian is returned when the calibration system cannot be
// solved: rank-deficient instrument sets or under-determined node layouts.
var ErrSingularJacobian = errors.New("singular calibration jacobian")

// CalibrationError reports a calibration that exceeded its iteration budget
// or produced non-finite values. It carries the last residual vector so the
// caller can see how far from par each instrument ended.
type CalibrationError struct {
	Iterations int
	Residuals  []float64
	Norm       float64
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration failed after %d iterations (residual max-norm %.6e)", e.Iterations, e.Norm)
}

// Instrument is anything the solver can calibrate to: it must quote its par
// rate against a projection and a discount curve.
type Instrument interface {
	ParRate(proj swap.ProjectionCurve, disc swap.DiscountCurve, valuation time.Time) (float64, error)
}

// Result describes a finished calibration.
type Result struct {
	Iterations   int
	ResidualNorm float64
	Converged    bool
}

// Solver calibrates a curve's node discount factors so that every
// calibration instrument reprices to its target market rate.
//
// Formulated as root finding: find node values x with
// f(x) = parRate_i(x) - target_i = 0 for all i, solved by damped
// Newton-Raphson (Gauss-Newton least squares when instruments outnumber
// free nodes). The Jacobian at convergence is retained for reuse by risk
// queries until the solver is re-run.
type Solver struct {
	crv         *curve.Curve
	instruments []Instrument
	labels      []string
	targets     []float64
	cfg         Config

	jac        *mat.Dense
	result     Result
	calibrated bool
}

// New builds a solver over one curve. Targets are par rates in decimals,
// one per instrument, with labels identifying each calibration instrument
// in risk output. The instrument count must be at least the number of free
// nodes (every node needs an instrument to pin it down).
func New(crv *curve.Curve, instruments []Instrument, labels []string, targets []float64, cfg Config) (*Solver, error) {
	if crv == nil {
		return nil, fmt.Errorf("solver.New: %w", swap.ErrNilCurve)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("solver.New: no calibration instruments")
	}
	if len(instruments) != len(targets) || len(instruments) != len(labels) {
		return nil, fmt.Errorf("solver.New: %d instruments, %d labels, %d targets", len(instruments), len(labels), len(targets))
	}
	if free := crv.NodeCount() - 1; len(instruments) < free {
		return nil, fmt.Errorf("solver.New: %d instruments cannot pin %d free nodes: %w", len(instruments), free, ErrSingularJacobian)
	}
	return &Solver{
		crv:         crv,
		instruments: instruments,
		labels:      append([]string(nil), labels...),
		targets:     append([]float64(nil), targets...),
		cfg:         cfg,
	}, nil
}

// probe exposes the curve being calibrated through the swap curve
// interfaces, bypassing the calibration guard during iteration.
type probe struct {
	crv *curve.Curve
}

func (p probe) DF(t time.Time) (float64, error) {
	return p.crv.UncalibratedDF(t)
}

func (s *Solver) residuals() ([]float64, error) {
	pr := probe{s.crv}
	out := make([]float64, len(s.instruments))
	for i, inst := range s.instruments {
		r, err := inst.ParRate(pr, pr, s.crv.AsOf())
		if err != nil {
			return nil, err
		}
		out[i] = r - s.targets[i]
	}
	return out, nil
}

func maxNorm(v []float64) float64 {
	norm := 0.0
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return math.NaN()
		}
		if a := math.Abs(x); a > norm {
			norm = a
		}
	}
	return norm
}

// jacobianColumn bumps one node on c, reprices every instrument, restores
// the node, and returns the finite-difference column.
func jacobianColumn(c *curve.Curve, instruments []Instrument, targets, f0 []float64, j int, bump float64) ([]float64, error) {
	base := c.NodeDFs()[j+1]
	h := base * bump
	if err := c.SetNodeDF(j+1, base+h); err != nil {
		return nil, err
	}
	pr := probe{c}
	col := make([]float64, len(instruments))
	for i, inst := range instruments {
		r, err := inst.ParRate(pr, pr, c.AsOf())
		if err != nil {
			_ = c.SetNodeDF(j+1, base)
			return nil, err
		}
		col[i] = (r - targets[i] - f0[i]) / h
	}
	if err := c.SetNodeDF(j+1, base); err != nil {
		return nil, err
	}
	return col, nil
}

// jacobian evaluates J = df/dx by finite differences. Columns are
// independent; with cfg.Workers > 1 they are farmed out to goroutines, each
// probing its own curve clone, and merged deterministically by column index.
func (s *Solver) jacobian(f0 []float64) (*mat.Dense, error) {
	n := s.crv.NodeCount() - 1
	m := len(s.instruments)
	jac := mat.NewDense(m, n, nil)

	if s.cfg.Workers <= 1 {
		for j := 0; j < n; j++ {
			col, err := jacobianColumn(s.crv, s.instruments, s.targets, f0, j, s.cfg.BumpSize)
			if err != nil {
				return nil, err
			}
			jac.SetCol(j, col)
		}
		return jac, nil
	}

	type colResult struct {
		j   int
		col []float64
		err error
	}

	cols := make(chan int)
	results := make(chan colResult, n)
	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clone := s.crv.Clone()
			for j := range cols {
				col, err := jacobianColumn(clone, s.instruments, s.targets, f0, j, s.cfg.BumpSize)
				results <- colResult{j: j, col: col, err: err}
			}
		}()
	}
	go func() {
		for j := 0; j < n; j++ {
			cols <- j
		}
		close(cols)
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		jac.SetCol(res.j, res.col)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return jac, nil
}

// Calibrate runs the damped Newton iteration until the residual max-norm
// falls below the configured tolerance.
//
// On success the curve's node values are left at the converged solution, the
// curve is marked calibrated, and the convergence Jacobian is retained. On
// failure a CalibrationError carrying the last residual vector is returned
// and the curve stays unmarked - it is never exposed as calibrated.
func (s *Solver) Calibrate() (Result, error) {
	cfg := s.cfg
	n := s.crv.NodeCount() - 1

	f, err := s.residuals()
	if err != nil {
		return Result{}, fmt.Errorf("Calibrate: %w", err)
	}
	norm := maxNorm(f)
	if math.IsNaN(norm) {
		return Result{ResidualNorm: norm}, &CalibrationError{Residuals: f, Norm: norm}
	}

	iterations := 0
	for ; iterations < cfg.MaxIterations && norm >= cfg.Tolerance; iterations++ {
		jac, err := s.jacobian(f)
		if err != nil {
			return Result{Iterations: iterations, ResidualNorm: norm}, fmt.Errorf("Calibrate: %w", err)
		}

		rhs := mat.NewVecDense(len(f), nil)
		for i, v := range f {
			rhs.SetVec(i, -v)
		}
		var dx mat.VecDense
		if err := dx.SolveVec(jac, rhs); err != nil {
			return Result{Iterations: iterations, ResidualNorm: norm},
				fmt.Errorf("Calibrate: %w: %v", ErrSingularJacobian, err)
		}

		// Damped update: halve the step while it fails to reduce the
		// residual norm or drives a discount factor non-positive.
		x0 := s.crv.NodeDFs()
		lambda := 1.0
		accepted := false
		for bt := 0; bt <= cfg.MaxBacktracks; bt++ {
			applied := true
			for j := 0; j < n; j++ {
				v := x0[j+1] + lambda*dx.AtVec(j)
				if !(v > 0) || math.IsNaN(v) || math.IsInf(v, 0) {
					applied = false
					break
				}
				if err := s.crv.SetNodeDF(j+1, v); err != nil {
					applied = false
					break
				}
			}
			if applied {
				fNew, err := s.residuals()
				if err == nil {
					if normNew := maxNorm(fNew); !math.IsNaN(normNew) && normNew < norm {
						f, norm = fNew, normNew
						accepted = true
						break
					}
				}
			}
			for j := 0; j < n; j++ {
				_ = s.crv.SetNodeDF(j+1, x0[j+1])
			}
			lambda *= 0.5
		}
		if !accepted {
			return Result{Iterations: iterations + 1, ResidualNorm: norm},
				&CalibrationError{Iterations: iterations + 1, Residuals: append([]float64(nil), f...), Norm: norm}
		}
	}

	if norm >= cfg.Tolerance || math.IsNaN(norm) {
		return Result{Iterations: iterations, ResidualNorm: norm},
			&CalibrationError{Iterations: iterations, Residuals: append([]float64(nil), f...), Norm: norm}
	}

	// Retain the Jacobian at the converged solution for risk reuse.
	jac, err := s.jacobian(f)
	if err != nil {
		return Result{Iterations: iterations, ResidualNorm: norm}, fmt.Errorf("Calibrate: %w", err)
	}
	s.jac = jac
	s.crv.MarkCalibrated()
	s.calibrated = true
	s.result = Result{Iterations: iterations, ResidualNorm: norm, Converged: true}
	return s.result, nil
}

// Calibrated reports whether Calibrate has converged.
func (s *Solver) Calibrated() bool {
	return s.calibrated
}

// Result returns the last successful calibration result.
func (s *Solver) Result() Result {
	return s.result
}

// Curve returns the curve under calibration.
func (s *Solver) Curve() *curve.Curve {
	return s.crv
}

// Jacobian returns a copy of the calibration Jacobian at convergence, or
// nil before a successful Calibrate.
func (s *Solver) Jacobian() *mat.Dense {
	if s.jac == nil {
		return nil
	}
	return mat.DenseCopyOf(s.jac)
}

// Instruments returns the calibration instrument set.
func (s *Solver) Instruments() []Instrument {
	return append([]Instrument(nil), s.instruments...)
}

// Labels returns the calibration instrument labels, in column order.
func (s *Solver) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Targets returns the target par rates, in column order.
func (s *Solver) Targets() []float64 {
	return append([]float64(nil), s.targets...)
}

// Config returns the solver configuration.
func (s *Solver) Config() Config {
	return s.cfg
}
