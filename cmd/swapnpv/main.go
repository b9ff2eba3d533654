// Command swapnpv calibrates a discount curve from par swap quotes and
// prices a vanilla fixed-for-float swap against it.
//
// Input is JSON on stdin (or -input), output is JSON on stdout. Rates and
// notionals are quoted as strings and parsed exactly before entering the
// floating-point numerics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/risk"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/swap"
	"github.com/meenmo/curvelib/utils"
)

// QuoteInput is one calibration quote: tenor label and par rate in percent.
type QuoteInput struct {
	Tenor string `json:"tenor"`
	Rate  string `json:"rate"`
}

// PricingInput defines the JSON input schema.
//
// Conventions:
// - rates are in percent strings (e.g., "5.40" means 5.40%)
// - direction is from the trader perspective: PAY (pay fixed) or REC
type PricingInput struct {
	CurveDate string       `json:"curve_date"` // "2023-08-28"
	Calendar  string       `json:"calendar"`   // e.g. "USD", "TARGET"
	Quotes    []QuoteInput `json:"quotes"`

	// MaturityTenor (e.g. "2Y") or explicit MaturityDate; tenor wins if both set.
	MaturityTenor string `json:"maturity_tenor"`
	MaturityDate  string `json:"maturity_date"`

	Notional     string `json:"notional"`
	FixedRatePct string `json:"fixed_rate"`
	Direction    string `json:"direction"`
}

type PricingOutput struct {
	Iterations      int                `json:"iterations"`
	ResidualNorm    float64            `json:"residual_norm"`
	DiscountFactors map[string]float64 `json:"discount_factors"`
	ParRatePct      float64            `json:"par_rate_pct"`
	FixedLegPV      float64            `json:"fixed_leg_pv"`
	FloatLegPV      float64            `json:"float_leg_pv"`
	NPV             float64            `json:"npv"`
	PV01            float64            `json:"pv01"`
	DeltaBP         map[string]float64 `json:"delta_bp"`
	Error           string             `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swapnpv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	inputBytes, err := readInput(stdin, strings.TrimSpace(*inputPath))
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input PricingInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse input: %v", err))
	}

	output, err := price(input)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	writeJSON(stdout, output)
	return 0
}

func price(input PricingInput) (*PricingOutput, error) {
	asOf, err := utils.ParseDate(input.CurveDate)
	if err != nil {
		return nil, fmt.Errorf("curve_date: %w", err)
	}
	cal, err := calendar.Resolve(input.Calendar)
	if err != nil {
		return nil, fmt.Errorf("calendar %q: %w", input.Calendar, err)
	}
	if len(input.Quotes) == 0 {
		return nil, fmt.Errorf("no quotes provided")
	}

	// Parse the quoted figures exactly before converting to floats.
	notional, err := decimal.NewFromString(input.Notional)
	if err != nil {
		return nil, fmt.Errorf("notional %q: %w", input.Notional, err)
	}
	fixedPct, err := decimal.NewFromString(input.FixedRatePct)
	if err != nil {
		return nil, fmt.Errorf("fixed_rate %q: %w", input.FixedRatePct, err)
	}
	fixedRate := fixedPct.Div(decimal.NewFromInt(100)).InexactFloat64()

	fixedLeg := swap.USDSOFRFixed
	fixedLeg.Calendar = cal
	floatLeg := swap.USDSOFRFloat
	floatLeg.Calendar = cal

	labels := make([]string, 0, len(input.Quotes))
	nodeDates := make([]time.Time, 0, len(input.Quotes))
	targets := make([]float64, 0, len(input.Quotes))
	for _, q := range input.Quotes {
		tenor, err := calendar.ParseTenor(q.Tenor)
		if err != nil {
			return nil, fmt.Errorf("quote %q: %w", q.Tenor, err)
		}
		ratePct, err := decimal.NewFromString(q.Rate)
		if err != nil {
			return nil, fmt.Errorf("quote %s rate %q: %w", q.Tenor, q.Rate, err)
		}
		labels = append(labels, tenor.String())
		nodeDates = append(nodeDates, calendar.AddTenor(cal, asOf, tenor, calendar.ModifiedFollowing))
		targets = append(targets, ratePct.Div(decimal.NewFromInt(100)).InexactFloat64())
	}

	crv, err := curve.NewCurve(asOf, nodeDates)
	if err != nil {
		return nil, err
	}

	instruments := make([]solver.Instrument, len(nodeDates))
	for i, maturity := range nodeDates {
		inst, err := swap.NewIRS(1_000_000, targets[i], asOf, maturity, swap.ReceiveFixed, fixedLeg, floatLeg)
		if err != nil {
			return nil, fmt.Errorf("calibration instrument %s: %w", labels[i], err)
		}
		instruments[i] = inst
	}

	s, err := solver.New(crv, instruments, labels, targets, solver.DefaultConfig)
	if err != nil {
		return nil, err
	}
	result, err := s.Calibrate()
	if err != nil {
		return nil, err
	}

	maturity, err := resolveMaturity(input, cal, asOf)
	if err != nil {
		return nil, err
	}
	trade, err := swap.NewIRS(notional.InexactFloat64(), fixedRate, asOf, maturity,
		swap.Direction(strings.ToUpper(strings.TrimSpace(input.Direction))), fixedLeg, floatLeg)
	if err != nil {
		return nil, err
	}

	pv, err := trade.PVByLeg(crv, crv, asOf, nil)
	if err != nil {
		return nil, err
	}
	par, err := trade.ParRate(crv, crv, asOf)
	if err != nil {
		return nil, err
	}
	pv01, err := trade.AnalyticDelta(crv, asOf)
	if err != nil {
		return nil, err
	}
	deltas, err := risk.Delta(trade, s, nil)
	if err != nil {
		return nil, err
	}

	dfs := make(map[string]float64, len(labels))
	for i, d := range nodeDates {
		df, err := crv.DF(d)
		if err != nil {
			return nil, err
		}
		dfs[labels[i]] = df
	}

	return &PricingOutput{
		Iterations:      result.Iterations,
		ResidualNorm:    result.ResidualNorm,
		DiscountFactors: dfs,
		ParRatePct:      par * 100,
		FixedLegPV:      pv.FixedLegPV,
		FloatLegPV:      pv.FloatLegPV,
		NPV:             pv.TotalPV,
		PV01:            pv01,
		DeltaBP:         deltas,
	}, nil
}

func resolveMaturity(input PricingInput, cal calendar.CalendarID, asOf time.Time) (time.Time, error) {
	if strings.TrimSpace(input.MaturityTenor) != "" {
		tenor, err := calendar.ParseTenor(input.MaturityTenor)
		if err != nil {
			return time.Time{}, fmt.Errorf("maturity_tenor: %w", err)
		}
		return calendar.AddTenor(cal, asOf, tenor, calendar.ModifiedFollowing), nil
	}
	if strings.TrimSpace(input.MaturityDate) != "" {
		return utils.ParseDate(input.MaturityDate)
	}
	return time.Time{}, fmt.Errorf("maturity_tenor or maturity_date is required")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(w io.Writer, msg string) int {
	writeJSON(w, &PricingOutput{Error: msg})
	return 1
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: swapnpv [-input file.json] < input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calibrates a discount curve from par swap quotes and prices a")
	fmt.Fprintln(w, "vanilla fixed-for-float swap. See PricingInput for the schema.")
}
