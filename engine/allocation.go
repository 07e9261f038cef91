/*
allocation.go - Effective allocation resolution

The four allocation policies are a closed tagged set; each resolves to an
effective percentage for a date window:

  full:               always 100
  percentage_total:   the stored percentage, regardless of period
  split_by_projects:  100 / (count of the staff member's assignments
                      overlapping the period, this one included). Computed
                      on every query, never stored or cached.
  percentage_monthly: day-weighted average of per-month percentages across
                      the calendar months the period touches; months
                      without an explicit row default to 100.

With no explicit period, the assignment's own [start, end] is used - that
single number is the summary percentage shown for the whole assignment.
*/
package engine

import "context"

// EffectiveAllocation resolves the assignment's allocation percentage for
// the given period. A nil period means the assignment's own date range.
func (e *Engine) EffectiveAllocation(ctx context.Context, a Assignment, period *Period) (float64, error) {
	p := a.Range()
	if period != nil {
		p = *period
	}

	switch a.AllocationType {
	case AllocationFull:
		return 100, nil

	case AllocationPercentageTotal:
		return a.AllocationPercentage, nil

	case AllocationSplitByProjects:
		return e.splitAllocation(ctx, a, p)

	case AllocationPercentageMonthly:
		return e.monthlyAllocation(ctx, a, p)

	default:
		return 0, invalid("allocation_type", "unknown allocation type "+string(a.AllocationType))
	}
}

// splitAllocation divides capacity by the number of assignments the staff
// member holds in the window. All overlapping assignments count toward the
// divisor regardless of their own allocation type: two sibling `full`
// assignments each count as 1.
func (e *Engine) splitAllocation(ctx context.Context, a Assignment, p Period) (float64, error) {
	siblings, err := e.Store.ListAssignmentsOverlapping(ctx, a.StaffID, p.Start, p.End)
	if err != nil {
		return 0, err
	}
	count := 0
	seenSelf := false
	for _, s := range siblings {
		count++
		if s.ID == a.ID {
			seenSelf = true
		}
	}
	// A shadow assignment (simulation, pre-commit validation) is not in the
	// store yet but still shares the window.
	if !seenSelf && a.Overlaps(p.Start, p.End) {
		count++
	}
	if count == 0 {
		return 100, nil
	}
	return 100.0 / float64(count), nil
}

// monthlyAllocation computes the day-weighted average of the assignment's
// per-month percentages across the period.
func (e *Engine) monthlyAllocation(ctx context.Context, a Assignment, p Period) (float64, error) {
	rows, err := e.Store.ListMonthlyAllocations(ctx, a.ID)
	if err != nil {
		return 0, err
	}
	byMonth := make(map[string]float64, len(rows))
	for _, r := range rows {
		byMonth[r.Month.Key()] = r.Percentage
	}

	// Clamp the window to the assignment's own range first: days outside the
	// assignment contribute no weight.
	start, end := p.Start, p.End
	if a.StartDate.After(start) {
		start = a.StartDate
	}
	if a.EndDate.Before(end) {
		end = a.EndDate
	}

	var weightedSum, totalDays float64
	for _, m := range MonthsInRange(start, end) {
		ms, me := m.Start(), m.End()
		days := OverlapDays(&start, &end, &ms, &me)
		if days <= 0 {
			continue
		}
		pct, ok := byMonth[m.Key()]
		if !ok {
			pct = 100
		}
		weightedSum += float64(days) * pct
		totalDays += float64(days)
	}
	if totalDays == 0 {
		return 100, nil
	}
	return weightedSum / totalDays, nil
}

// AssignmentHours returns the assignment's raw and allocation-adjusted hours
// for the period. Both are always computed side by side so callers can show
// unadjusted headcount next to allocation-adjusted cost.
func (e *Engine) AssignmentHours(ctx context.Context, a Assignment, period Period) (raw, allocated float64, err error) {
	days := OverlapDays(&a.StartDate, &a.EndDate, &period.Start, &period.End)
	if days <= 0 {
		return 0, 0, nil
	}
	raw = HoursForOverlap(days, a.HoursPerWeek)

	pct, err := e.EffectiveAllocation(ctx, a, &period)
	if err != nil {
		return 0, 0, err
	}
	return raw, raw * pct / 100.0, nil
}
