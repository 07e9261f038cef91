package engine

// =============================================================================
// PERIOD - Inclusive date range, and the day-overlap primitive
// =============================================================================

// Period is an inclusive date range [Start, End]. Every duration-to-hours
// conversion in the engine goes through OverlapDays on a Period.
type Period struct {
	Start Date
	End   Date
}

func NewPeriod(start, end Date) Period { return Period{Start: start, End: end} }

// Contains returns true if d falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the inclusive day count of the period, 0 if inverted.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Weeks returns the fractional week count of the period.
// Sub-week periods still register proportional weeks.
func (p Period) Weeks() float64 { return float64(p.Days()) / 7.0 }

// Months returns every calendar month the period touches.
func (p Period) Months() []Month { return MonthsInRange(p.Start, p.End) }

func (p Period) String() string { return "[" + p.Start.String() + ", " + p.End.String() + "]" }

// OverlapDays returns the count of inclusive overlapping days between two
// date ranges, or 0 if either range is unbounded/missing or they do not
// intersect. This is the sole arithmetic primitive under all hour and cost
// aggregation.
func OverlapDays(aStart, aEnd, bStart, bEnd *Date) int {
	if aStart == nil || aEnd == nil || bStart == nil || bEnd == nil {
		return 0
	}
	if aStart.IsZero() || aEnd.IsZero() || bStart.IsZero() || bEnd.IsZero() {
		return 0
	}

	start := *aStart
	if bStart.After(start) {
		start = *bStart
	}
	end := *aEnd
	if bEnd.Before(end) {
		end = *bEnd
	}

	if start.After(end) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// OverlapWithPeriod returns the inclusive day overlap between [start, end]
// and the period.
func (p Period) OverlapWithRange(start, end Date) int {
	return OverlapDays(&start, &end, &p.Start, &p.End)
}

// HoursForOverlap converts an inclusive day overlap into hours at the given
// weekly rate: days/7 × hoursPerWeek (fractional weeks, not calendar weeks).
func HoursForOverlap(overlapDays int, hoursPerWeek float64) float64 {
	if overlapDays <= 0 {
		return 0
	}
	return float64(overlapDays) / 7.0 * hoursPerWeek
}
