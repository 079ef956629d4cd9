package types

import (
	"math"
	"time"
)

// NormalizeToPeriod truncates t to the first calendar day of its month, in UTC.
func NormalizeToPeriod(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CeilDays returns the span between start and end in whole days, rounding any partial day up.
// Negative spans are returned as negative whole days (rounded toward +inf).
func CeilDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}
