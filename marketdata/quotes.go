package marketdata

// Quote is one row of a par swap quote table: a tenor label and the quoted
// par rate in percent. Termination dates are resolved by the caller against
// its calendar, not stored here.
type Quote struct {
	Tenor string
	Rate  float64
}

// SampleSOFR is a bundled USD SOFR par swap quote set (mid, percent) used by
// the demo program and integration tests.
var SampleSOFR = []Quote{
	{"1W", 5.3010},
	{"1M", 5.3050},
	{"3M", 5.3200},
	{"6M", 5.3010},
	{"1Y", 5.0940},
	{"18M", 4.8500},
	{"2Y", 4.6680},
	{"3Y", 4.4140},
	{"4Y", 4.2650},
}
