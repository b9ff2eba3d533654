package main

import (
	"fmt"
	"log"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/risk"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/swap"
)

// Demo: bootstrap a USD SOFR discount curve from the bundled par quote set,
// price a seasoned payer swap against it, and print the risk ladder.
func main() {
	asOf := time.Date(2023, 8, 28, 0, 0, 0, 0, time.UTC)
	cal := calendar.USD

	// Resolve quote tenors to node dates.
	labels := make([]string, 0, len(marketdata.SampleSOFR))
	nodeDates := make([]time.Time, 0, len(marketdata.SampleSOFR))
	targets := make([]float64, 0, len(marketdata.SampleSOFR))
	for _, q := range marketdata.SampleSOFR {
		tenor, err := calendar.ParseTenor(q.Tenor)
		if err != nil {
			log.Fatal(err)
		}
		labels = append(labels, q.Tenor)
		nodeDates = append(nodeDates, calendar.AddTenor(cal, asOf, tenor, calendar.ModifiedFollowing))
		targets = append(targets, q.Rate/100.0)
	}

	crv, err := curve.NewCurve(asOf, nodeDates)
	if err != nil {
		log.Fatal(err)
	}

	// One par swap per node.
	instruments := make([]solver.Instrument, len(nodeDates))
	for i, maturity := range nodeDates {
		inst, err := swap.NewIRS(10_000_000, targets[i], asOf, maturity, swap.ReceiveFixed, swap.USDSOFRFixed, swap.USDSOFRFloat)
		if err != nil {
			log.Fatal(err)
		}
		instruments[i] = inst
	}

	s, err := solver.New(crv, instruments, labels, targets, solver.DefaultConfig)
	if err != nil {
		log.Fatal(err)
	}
	result, err := s.Calibrate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("calibrated in %d iterations, residual max-norm %.3e\n\n", result.Iterations, result.ResidualNorm)

	fmt.Println("tenor       date          df           zero")
	for i, d := range crv.NodeDates() {
		if i == 0 {
			continue
		}
		df, err := crv.DF(d)
		if err != nil {
			log.Fatal(err)
		}
		zero, err := crv.ZeroRate(d)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-5s  %s  %.9f  %8.5f%%\n", labels[i-1], d.Format("2006-01-02"), df, zero)
	}

	// Price a 2Y payer swap struck above par.
	maturity2Y := nodeDates[6]
	trade, err := swap.NewIRS(100_000_000, 0.0540, asOf, maturity2Y, swap.PayFixed, swap.USDSOFRFixed, swap.USDSOFRFloat)
	if err != nil {
		log.Fatal(err)
	}

	pv, err := trade.PVByLeg(crv, crv, asOf, nil)
	if err != nil {
		log.Fatal(err)
	}
	par, err := trade.ParRate(crv, crv, asOf)
	if err != nil {
		log.Fatal(err)
	}
	pv01, err := trade.AnalyticDelta(crv, asOf)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\n2Y payer swap, 100mm @ 5.40%% fixed\n")
	fmt.Printf("  fixed leg PV : %18.2f\n", pv.FixedLegPV)
	fmt.Printf("  float leg PV : %18.2f\n", pv.FloatLegPV)
	fmt.Printf("  NPV          : %18.2f\n", pv.TotalPV)
	fmt.Printf("  par rate     : %18.6f%%\n", par*100)
	fmt.Printf("  PV01         : %18.2f\n", pv01)

	deltas, err := risk.Delta(trade, s, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\ndelta by calibration instrument (per 1bp):")
	for _, label := range labels {
		fmt.Printf("  %-5s %16.2f\n", label, deltas[label])
	}

	cashflows, err := trade.Cashflows(crv, crv, asOf, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\ncashflows:")
	fmt.Println("leg       start        end          pay          accrual     rate        value")
	for _, row := range cashflows {
		fmt.Printf("%-8s  %s  %s  %s  %.6f  %8.5f%%  %14.2f\n",
			row.Leg,
			row.StartDate.Format("2006-01-02"),
			row.EndDate.Format("2006-01-02"),
			row.PayDate.Format("2006-01-02"),
			row.Accrual,
			row.Rate*100,
			row.Value,
		)
	}
}
