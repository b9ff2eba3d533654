package swap

import "github.com/meenmo/curvelib/calendar"

// LegType distinguishes fixed vs floating.
type LegType string

const (
	LegFixed    LegType = "FIXED"
	LegFloating LegType = "FLOATING"
)

// Frequency enumerates payment frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// RollConvention for month-end handling during schedule generation.
type RollConvention string

const (
	// BackwardEOM keeps month-aligned rolls anchored via EDATE-style month
	// arithmetic so repeated rolls do not drift through month ends.
	BackwardEOM RollConvention = "BACKWARD_EOM"
	// RollNone adds raw calendar months.
	RollNone RollConvention = "NONE"
)

// ScheduleDirection selects forward rolls from the effective date or
// backward rolls from maturity (front stub).
type ScheduleDirection string

const (
	ScheduleForward  ScheduleDirection = "FORWARD"
	ScheduleBackward ScheduleDirection = "BACKWARD"
)

// DayCount enum.
type DayCount string

const (
	Act360   DayCount = "ACT/360"
	Act365F  DayCount = "ACT/365F"
	Dc30360  DayCount = "30/360"
	Dc30E360 DayCount = "30E/360"
)

// LegConvention captures standard swap leg settings. It is the typed
// replacement for string-keyed convention presets: pricing logic only ever
// reads these fields, never a name.
type LegConvention struct {
	LegType               LegType
	DayCount              DayCount
	PayFrequency          Frequency
	FixingLagDays         int
	PayDelayDays          int
	BusinessDayAdjustment calendar.Modifier
	RollConvention        RollConvention
	ScheduleDirection     ScheduleDirection
	Calendar              calendar.CalendarID
}

// Preset leg conventions. Constructible defaults matching standard market
// conventions; callers copy and override fields as needed.
var (
	// USDSOFRFixed is the fixed leg of a USD SOFR swap: annual, ACT/360, T+2 pay.
	USDSOFRFixed = LegConvention{
		LegType:               LegFixed,
		DayCount:              Act360,
		PayFrequency:          FreqAnnual,
		PayDelayDays:          2,
		BusinessDayAdjustment: calendar.ModifiedFollowing,
		RollConvention:        BackwardEOM,
		ScheduleDirection:     ScheduleForward,
		Calendar:              calendar.USD,
	}

	// USDSOFRFloat is the floating leg of a USD SOFR swap: annual, ACT/360,
	// T+2 pay, rates set in arrears off the projection curve.
	USDSOFRFloat = LegConvention{
		LegType:               LegFloating,
		DayCount:              Act360,
		PayFrequency:          FreqAnnual,
		PayDelayDays:          2,
		BusinessDayAdjustment: calendar.ModifiedFollowing,
		RollConvention:        BackwardEOM,
		ScheduleDirection:     ScheduleForward,
		Calendar:              calendar.USD,
	}

	// EURFixed is the fixed leg of a EUR IRS: annual, 30E/360.
	EURFixed = LegConvention{
		LegType:               LegFixed,
		DayCount:              Dc30E360,
		PayFrequency:          FreqAnnual,
		BusinessDayAdjustment: calendar.ModifiedFollowing,
		RollConvention:        BackwardEOM,
		ScheduleDirection:     ScheduleBackward,
		Calendar:              calendar.TARGET,
	}

	// EURFloat is the floating leg of a EUR IRS: semi-annual, ACT/360,
	// fixings two business days before each accrual start.
	EURFloat = LegConvention{
		LegType:               LegFloating,
		DayCount:              Act360,
		PayFrequency:          FreqSemi,
		FixingLagDays:         2,
		BusinessDayAdjustment: calendar.ModifiedFollowing,
		RollConvention:        BackwardEOM,
		ScheduleDirection:     ScheduleBackward,
		Calendar:              calendar.TARGET,
	}
)
