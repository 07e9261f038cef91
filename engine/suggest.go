/*
suggest.go - Candidate ranking and new-hire gap flagging

Candidates for an open role pass two hard filters (availability window,
allocation headroom), then get an informational match score. The score ranks,
it never gates: a low-scoring candidate is still a valid pick.

SCORE COMPONENTS (max 100):
  availability      0-40   proportional to allocation headroom
  schedule gap      0-30   how tightly the prior assignment ends before
                           the requested start (tighter is better)
  recent experience 0-20   5 points per assignment ended in the last year
  skills presence   5|10   flat bonus when any skills are recorded
*/
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// StaffSuggestion is one ranked candidate for an open role.
type StaffSuggestion struct {
	StaffID            string   `json:"staff_id"`
	StaffName          string   `json:"staff_name"`
	Score              float64  `json:"score"`
	AvailableHeadroom  float64  `json:"available_headroom"`
	AvailabilityWeight float64  `json:"availability_weight"`
	ScheduleGapWeight  float64  `json:"schedule_gap_weight"`
	ExperienceWeight   float64  `json:"experience_weight"`
	SkillsWeight       float64  `json:"skills_weight"`
	Skills             []string `json:"skills"`
}

// HireRecommendation is one textual action suggestion for a staffing gap.
type HireRecommendation struct {
	Type     string `json:"type"` // "new_hire", "contractor", "reallocation"
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// NewHireNeed compares required headcount against qualified candidates.
type NewHireNeed struct {
	RoleID          string               `json:"role_id"`
	RoleName        string               `json:"role_name"`
	RequiredCount   int                  `json:"required_count"`
	QualifiedCount  int                  `json:"qualified_count"`
	Gap             int                  `json:"gap"`
	LeadTimeDays    int                  `json:"lead_time_days"`
	CostImpact      string               `json:"cost_impact"`
	Suggestions     []StaffSuggestion    `json:"suggestions"`
	Recommendations []HireRecommendation `json:"recommendations"`
}

// SuggestStaff ranks staff holding roleID who could take an assignment over
// [start, end] at requestedPct of their capacity. Hard filters first: the
// availability window must cover the period, and headroom (100 minus the
// combined allocation already committed in the period) must cover the
// requested percentage. Survivors are scored and sorted descending; ties
// keep query order.
func (e *Engine) SuggestStaff(ctx context.Context, roleID string, start, end Date, requestedPct float64) ([]StaffSuggestion, error) {
	role, err := e.Store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, notFound("role", roleID)
	}
	if end.Before(start) {
		return nil, invalid("end_date", "end date must not precede start date")
	}
	if requestedPct <= 0 || requestedPct > 100 {
		return nil, invalid("allocation_percentage", "must be between 0 and 100")
	}

	candidates, err := e.Store.ListStaffByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	suggestions := []StaffSuggestion{}
	for _, s := range candidates {
		if !staffAvailableFor(s, start, end) {
			continue
		}
		headroom, err := e.allocationHeadroom(ctx, s.ID, start, end)
		if err != nil {
			return nil, err
		}
		if headroom < requestedPct {
			continue
		}

		all, err := e.Store.ListAssignmentsByStaff(ctx, s.ID)
		if err != nil {
			return nil, err
		}

		sug := StaffSuggestion{
			StaffID:            s.ID,
			StaffName:          s.Name,
			AvailableHeadroom:  headroom,
			AvailabilityWeight: headroom / 100 * 40,
			ScheduleGapWeight:  scheduleGapWeight(all, start),
			ExperienceWeight:   recentExperienceWeight(all, start),
			Skills:             s.Skills,
		}
		if len(s.Skills) > 0 {
			sug.SkillsWeight = 10
		} else {
			sug.SkillsWeight = 5
		}
		sug.Score = sug.AvailabilityWeight + sug.ScheduleGapWeight + sug.ExperienceWeight + sug.SkillsWeight
		suggestions = append(suggestions, sug)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions, nil
}

// staffAvailableFor checks the hard availability window. A nil bound is open.
func staffAvailableFor(s Staff, start, end Date) bool {
	if s.AvailabilityStart != nil && start.Before(*s.AvailabilityStart) {
		return false
	}
	if s.AvailabilityEnd != nil && end.After(*s.AvailabilityEnd) {
		return false
	}
	return true
}

// allocationHeadroom is 100 minus the combined effective allocation over the
// period, floored at zero.
func (e *Engine) allocationHeadroom(ctx context.Context, staffID string, start, end Date) (float64, error) {
	assignments, err := e.Store.ListAssignmentsOverlapping(ctx, staffID, start, end)
	if err != nil {
		return 0, err
	}
	window := Period{Start: start, End: end}
	var committed float64
	for _, a := range assignments {
		pct, err := e.EffectiveAllocation(ctx, a, &window)
		if err != nil {
			return 0, err
		}
		committed += pct
	}
	headroom := 100 - committed
	if headroom < 0 {
		headroom = 0
	}
	return headroom, nil
}

// scheduleGapWeight rewards candidates whose nearest prior assignment ends
// close to the requested start. No prior assignments scores mid-range.
func scheduleGapWeight(assignments []Assignment, start Date) float64 {
	var nearest *Date
	for i := range assignments {
		endDate := assignments[i].EndDate
		if endDate.After(start) {
			continue
		}
		if nearest == nil || endDate.After(*nearest) {
			d := endDate
			nearest = &d
		}
	}
	if nearest == nil {
		return 25
	}
	gap := DaysBetween(*nearest, start)
	switch {
	case gap == 0:
		return 30
	case gap <= 7:
		return 25
	case gap <= 14:
		return 20
	case gap <= 30:
		return 15
	default:
		return 10
	}
}

// recentExperienceWeight grants 5 points per assignment ended within the 365
// days before the requested start, capped at 20.
func recentExperienceWeight(assignments []Assignment, start Date) float64 {
	var weight float64
	cutoff := start.AddDays(-365)
	for _, a := range assignments {
		if a.EndDate.AfterOrEqual(cutoff) && a.EndDate.BeforeOrEqual(start) {
			weight += 5
		}
	}
	if weight > 20 {
		weight = 20
	}
	return weight
}

// FlagNewHireNeeds compares a required headcount against the qualified
// candidate pool for a role over a period and recommends actions based on
// lead time (days from asOf to the period start). A nil asOf means today.
func (e *Engine) FlagNewHireNeeds(ctx context.Context, roleID string, start, end Date, requiredCount int, requestedPct float64, asOf *Date) (*NewHireNeed, error) {
	role, err := e.Store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, notFound("role", roleID)
	}
	if requiredCount < 1 {
		return nil, invalid("required_count", "must be at least 1")
	}

	suggestions, err := e.SuggestStaff(ctx, roleID, start, end, requestedPct)
	if err != nil {
		return nil, err
	}

	from := Today()
	if asOf != nil {
		from = *asOf
	}
	leadTime := DaysBetween(from, start)
	if leadTime < 0 {
		leadTime = 0
	}

	gap := requiredCount - len(suggestions)
	if gap < 0 {
		gap = 0
	}

	need := &NewHireNeed{
		RoleID:          roleID,
		RoleName:        role.Name,
		RequiredCount:   requiredCount,
		QualifiedCount:  len(suggestions),
		Gap:             gap,
		LeadTimeDays:    leadTime,
		Suggestions:     suggestions,
		Recommendations: []HireRecommendation{},
	}

	if gap > 0 {
		rate := role.InternalHourlyCost
		if role.DefaultBillableRate != nil {
			rate = *role.DefaultBillableRate
		}
		hours := HoursForOverlap(Period{Start: start, End: end}.Days(), StandardWeeklyHours)
		perHead := MoneyFromHours(hours*requestedPct/100, rate)
		need.CostImpact = perHead.Mul(decimal.NewFromInt(int64(gap))).StringFixed(2)

		if leadTime < 60 {
			need.Recommendations = append(need.Recommendations, HireRecommendation{
				Type:     "new_hire",
				Priority: "high",
				Message:  fmt.Sprintf("Hire %d %s within %d days to cover the gap", gap, role.Name, leadTime),
			})
		} else {
			need.Recommendations = append(need.Recommendations, HireRecommendation{
				Type:     "new_hire",
				Priority: "normal",
				Message:  fmt.Sprintf("Plan to hire %d %s before %s", gap, role.Name, start),
			})
		}
		if leadTime < 30 {
			need.Recommendations = append(need.Recommendations, HireRecommendation{
				Type:     "contractor",
				Priority: "high",
				Message:  fmt.Sprintf("Lead time is only %d days; consider contractors for %s", leadTime, role.Name),
			})
		}

		// Partial headroom across the whole role pool can sometimes cover a
		// head even when no single person qualifies.
		partial, err := e.combinedPartialHeadroom(ctx, roleID, start, end, suggestions)
		if err != nil {
			return nil, err
		}
		if partial >= 50 {
			need.Recommendations = append(need.Recommendations, HireRecommendation{
				Type:     "reallocation",
				Priority: "normal",
				Message:  fmt.Sprintf("Existing %s staff hold %.0f%% combined spare capacity; consider reallocating", role.Name, partial),
			})
		}
	}
	return need, nil
}

// combinedPartialHeadroom sums the headroom of role holders who survived the
// availability filter but did not qualify as full suggestions.
func (e *Engine) combinedPartialHeadroom(ctx context.Context, roleID string, start, end Date, qualified []StaffSuggestion) (float64, error) {
	qualifiedIDs := map[string]bool{}
	for _, s := range qualified {
		qualifiedIDs[s.StaffID] = true
	}
	pool, err := e.Store.ListStaffByRole(ctx, roleID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range pool {
		if qualifiedIDs[s.ID] || !staffAvailableFor(s, start, end) {
			continue
		}
		headroom, err := e.allocationHeadroom(ctx, s.ID, start, end)
		if err != nil {
			return 0, err
		}
		total += headroom
	}
	return total, nil
}
