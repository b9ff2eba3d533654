package swap_test

import (
	"errors"
	"testing"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/swap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// targetLeg is a plain annual leg on the TARGET calendar with no pay delay,
// keeping schedule dates easy to verify by hand.
func targetLeg(legType swap.LegType) swap.LegConvention {
	return swap.LegConvention{
		LegType:               legType,
		DayCount:              swap.Act365F,
		PayFrequency:          swap.FreqAnnual,
		BusinessDayAdjustment: calendar.ModifiedFollowing,
		RollConvention:        swap.BackwardEOM,
		ScheduleDirection:     swap.ScheduleForward,
		Calendar:              calendar.TARGET,
	}
}

func TestGenerateScheduleForward(t *testing.T) {
	t.Parallel()

	effective := date(2025, 1, 1)
	maturity := date(2027, 1, 1)

	periods, err := swap.GenerateSchedule(effective, maturity, targetLeg(swap.LegFixed))
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}

	p0, p1 := periods[0], periods[1]
	if !p0.StartDate.Equal(effective) || !p0.EndDate.Equal(date(2026, 1, 1)) {
		t.Fatalf("period 0 = [%s, %s]", p0.StartDate.Format("2006-01-02"), p0.EndDate.Format("2006-01-02"))
	}
	if !p1.StartDate.Equal(p0.EndDate) {
		t.Fatalf("period 1 start %s does not chain from period 0 end %s",
			p1.StartDate.Format("2006-01-02"), p0.EndDate.Format("2006-01-02"))
	}
	if !p1.EndDate.Equal(maturity) {
		t.Fatalf("period 1 end = %s, want maturity", p1.EndDate.Format("2006-01-02"))
	}
	if p0.AccrualDays != 365 || p1.AccrualDays != 365 {
		t.Fatalf("accrual days = %d, %d, want 365, 365", p0.AccrualDays, p1.AccrualDays)
	}
	// No pay delay: pay date equals the period end.
	if !p0.PayDate.Equal(p0.EndDate) {
		t.Fatalf("pay date = %s, want %s", p0.PayDate.Format("2006-01-02"), p0.EndDate.Format("2006-01-02"))
	}
}

func TestGenerateScheduleBackwardFrontStub(t *testing.T) {
	t.Parallel()

	// Backward from maturity: intermediate roll dates align with maturity
	// and the odd remainder becomes a short first period.
	leg := targetLeg(swap.LegFixed)
	leg.ScheduleDirection = swap.ScheduleBackward

	effective := date(2025, 2, 15) // Saturday, adjusts to Monday 02-17
	maturity := date(2027, 1, 1)

	periods, err := swap.GenerateSchedule(effective, maturity, leg)
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if !periods[0].StartDate.Equal(date(2025, 2, 17)) {
		t.Fatalf("stub start = %s, want 2025-02-17", periods[0].StartDate.Format("2006-01-02"))
	}
	if !periods[0].EndDate.Equal(date(2026, 1, 1)) {
		t.Fatalf("stub end = %s, want 2026-01-01", periods[0].EndDate.Format("2006-01-02"))
	}
	if !periods[1].EndDate.Equal(maturity) {
		t.Fatalf("final end = %s, want maturity", periods[1].EndDate.Format("2006-01-02"))
	}
}

func TestGenerateScheduleBackwardSkipsTinyStub(t *testing.T) {
	t.Parallel()

	leg := targetLeg(swap.LegFixed)
	leg.ScheduleDirection = swap.ScheduleBackward

	// The backward roll lands 3 days after the effective date; rather than a
	// 3-day stub, the first period absorbs it.
	effective := date(2025, 12, 29)
	maturity := date(2027, 1, 1)

	periods, err := swap.GenerateSchedule(effective, maturity, leg)
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	if !periods[0].StartDate.Equal(effective) || !periods[0].EndDate.Equal(maturity) {
		t.Fatalf("period = [%s, %s]",
			periods[0].StartDate.Format("2006-01-02"), periods[0].EndDate.Format("2006-01-02"))
	}
}

func TestGenerateSchedulePayDelayAndFixingLag(t *testing.T) {
	t.Parallel()

	leg := swap.USDSOFRFloat
	leg.FixingLagDays = 2

	effective := date(2023, 8, 28)
	maturity := date(2024, 8, 28)

	periods, err := swap.GenerateSchedule(effective, maturity, leg)
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	p := periods[0]
	// T+2 pay: 2024-08-28 is a Wednesday, two business days later is Friday.
	if !p.PayDate.Equal(date(2024, 8, 30)) {
		t.Fatalf("pay date = %s, want 2024-08-30", p.PayDate.Format("2006-01-02"))
	}
	// Fixing two business days before the start, Monday back to Thursday.
	if !p.FixingDate.Equal(date(2023, 8, 24)) {
		t.Fatalf("fixing date = %s, want 2023-08-24", p.FixingDate.Format("2006-01-02"))
	}
}

func TestGenerateScheduleErrors(t *testing.T) {
	t.Parallel()

	effective := date(2025, 1, 1)

	_, err := swap.GenerateSchedule(effective, effective, targetLeg(swap.LegFixed))
	if !errors.Is(err, swap.ErrInstrumentSpec) {
		t.Fatalf("expected ErrInstrumentSpec for maturity == effective, got %v", err)
	}

	leg := targetLeg(swap.LegFixed)
	leg.PayFrequency = 0
	_, err = swap.GenerateSchedule(effective, date(2026, 1, 1), leg)
	if !errors.Is(err, swap.ErrInstrumentSpec) {
		t.Fatalf("expected ErrInstrumentSpec for zero frequency, got %v", err)
	}
}
