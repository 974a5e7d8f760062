package domain

import "time"

// Period identifies one calendar month, the aggregation grain for revenue.
// The zero value is invalid; periods are always produced by PeriodOf or by
// navigation from an existing period.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf maps a date to its calendar month. Day and time-of-day are
// discarded; the mapping is total and deterministic.
func PeriodOf(date time.Time) Period {
	utc := date.UTC()
	return Period{Year: utc.Year(), Month: utc.Month()}
}

// Start returns the first instant of the month in UTC. This is the value
// persisted in the aggregate table's unique period column.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month. Range queries treat
// a period span as [Start, End).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// AddMonths returns the period n months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Key renders the canonical "YYYY-MM" identifier.
func (p Period) Key() string {
	return p.Start().Format("2006-01")
}

// Before reports whether p is an earlier month than other.
func (p Period) Before(other Period) bool {
	return p.Year < other.Year || (p.Year == other.Year && p.Month < other.Month)
}

// IsZero reports whether p is the invalid zero value.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// RollingWindowMonths is the fixed length of the reporting window.
const RollingWindowMonths = 12

// RollingWindow returns the RollingWindowMonths consecutive periods ending
// at the month containing now, oldest first.
func RollingWindow(now time.Time) []Period {
	last := PeriodOf(now)
	window := make([]Period, 0, RollingWindowMonths)
	for i := RollingWindowMonths - 1; i >= 0; i-- {
		window = append(window, last.AddMonths(-i))
	}
	return window
}
