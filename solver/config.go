package solver

// Config holds calibration parameters. Defaults are conservative and
// documented here rather than hardcoded through the iteration code.
type Config struct {
	// Tolerance is the max-norm residual (in rate units) below which the
	// calibration is declared converged.
	Tolerance float64

	// MaxIterations caps the Newton iteration count.
	MaxIterations int

	// BumpSize is the relative perturbation applied to a node discount
	// factor when computing finite-difference sensitivities.
	BumpSize float64

	// MaxBacktracks bounds the step-halving attempts when a full Newton
	// step increases the residual norm.
	MaxBacktracks int

	// Workers sets the number of goroutines evaluating Jacobian columns.
	// Values below 2 keep the evaluation sequential and allocation-free.
	Workers int
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Tolerance:     1e-8,
	MaxIterations: 50,
	BumpSize:      1e-4,
	MaxBacktracks: 8,
	Workers:       1,
}
