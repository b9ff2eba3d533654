package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/utils"
)

// GenerateSchedule builds the accrual periods for a leg between the
// effective and maturity dates.
//
// StartDate/EndDate/PayDate are business-day adjusted per the leg
// convention. With ScheduleBackward, periods roll backward from maturity so
// intermediate dates align with the maturity date and any stub lands at the
// front. Date and frequency errors surface here, at construction time, not
// at pricing time.
func GenerateSchedule(effective, maturity time.Time, leg LegConvention) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s: %w",
			maturity.Format("2006-01-02"), effective.Format("2006-01-02"), ErrInstrumentSpec)
	}
	if leg.PayFrequency <= 0 {
		return nil, fmt.Errorf("GenerateSchedule: unsupported pay frequency %d: %w", leg.PayFrequency, ErrInstrumentSpec)
	}

	if leg.ScheduleDirection == ScheduleBackward {
		return generateScheduleBackward(effective, maturity, leg)
	}
	return generateScheduleForward(effective, maturity, leg)
}

func (leg LegConvention) rollMonths(t time.Time, months int) time.Time {
	if leg.RollConvention == BackwardEOM {
		return utils.AddMonth(t, months)
	}
	return t.AddDate(0, months, 0)
}

// generateScheduleForward rolls unadjusted dates forward from the effective
// date, chaining adjusted period ends so accrual intervals do not overlap.
func generateScheduleForward(effective, maturity time.Time, leg LegConvention) ([]SchedulePeriod, error) {
	months := int(leg.PayFrequency)

	unadjusted := []time.Time{effective}
	current := effective
	for {
		current = leg.rollMonths(current, months)
		if current.After(maturity.AddDate(0, 0, 1)) {
			break
		}
		unadjusted = append(unadjusted, current)
		if !current.Before(maturity) {
			break
		}
	}
	if last := unadjusted[len(unadjusted)-1]; last.Before(maturity) {
		// Back stub up to maturity.
		unadjusted = append(unadjusted, maturity)
	}

	return buildPeriods(unadjusted, leg), nil
}

// generateScheduleBackward rolls unadjusted dates backward from maturity,
// creating a front stub when the distance to effective is irregular.
func generateScheduleBackward(effective, maturity time.Time, leg LegConvention) ([]SchedulePeriod, error) {
	months := int(leg.PayFrequency)

	var unadjusted []time.Time
	current := maturity
	for current.After(effective) {
		unadjusted = append([]time.Time{current}, unadjusted...)
		current = leg.rollMonths(current, -months)
	}

	// Skip a backward-rolled date within a week of the effective date to
	// avoid a tiny stub; the first period becomes a long front stub instead.
	if len(unadjusted) > 0 {
		daysDiff := int(utils.Days(effective, unadjusted[0]))
		if daysDiff > 0 && daysDiff <= 7 {
			unadjusted = unadjusted[1:]
		}
	}
	unadjusted = append([]time.Time{effective}, unadjusted...)

	return buildPeriods(unadjusted, leg), nil
}

func buildPeriods(unadjusted []time.Time, leg LegConvention) []SchedulePeriod {
	periods := make([]SchedulePeriod, 0, len(unadjusted)-1)
	var prevEnd time.Time
	for i := 0; i < len(unadjusted)-1; i++ {
		start := calendar.AdjustWith(leg.Calendar, unadjusted[i], leg.BusinessDayAdjustment)
		if i > 0 {
			start = prevEnd
		}
		end := calendar.AdjustWith(leg.Calendar, unadjusted[i+1], leg.BusinessDayAdjustment)
		pay := calendar.AddBusinessDays(leg.Calendar, end, leg.PayDelayDays)
		fixing := calendar.AddBusinessDays(leg.Calendar, start, -leg.FixingLagDays)

		periods = append(periods, SchedulePeriod{
			StartDate:   start,
			EndDate:     end,
			PayDate:     pay,
			FixingDate:  fixing,
			AccrualDays: int(utils.Days(start, end)),
		})
		prevEnd = end
	}
	return periods
}
