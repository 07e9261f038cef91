/*
overallocation.go - Capacity conflict detection

A staff member's combined effective allocation across all projects is summed
per calendar month. Anything above 100% is a conflict. Detection is advisory:
saves are never blocked, validation only produces warnings the caller may
override.
*/
package engine

import (
	"context"
	"fmt"
	"sort"
)

// Severity buckets, ranked by the worst monthly excess over 100%.
const (
	SeverityCritical = "critical" // excess above 50 points
	SeverityHigh     = "high"     // excess above 25 points
	SeverityModerate = "moderate"
)

func severityForExcess(excess float64) string {
	switch {
	case excess > 50:
		return SeverityCritical
	case excess > 25:
		return SeverityHigh
	default:
		return SeverityModerate
	}
}

func severityRank(s string) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	default:
		return 2
	}
}

// TimelineShare is one assignment's contribution to a month's total.
type TimelineShare struct {
	AssignmentID   string         `json:"assignment_id"`
	ProjectID      string         `json:"project_id"`
	ProjectName    string         `json:"project_name"`
	AllocationType AllocationType `json:"allocation_type"`
	Percentage     float64        `json:"percentage"`
	HoursPerWeek   float64        `json:"hours_per_week"`
}

// TimelineMonth is one calendar month of a staff member's allocation timeline.
type TimelineMonth struct {
	Month           string          `json:"month"`
	TotalAllocation float64         `json:"total_allocation"`
	IsOverAllocated bool            `json:"is_over_allocated"`
	Assignments     []TimelineShare `json:"assignments"`
}

// AllocationTimeline is the month-by-month allocation picture for one person.
type AllocationTimeline struct {
	StaffID   string          `json:"staff_id"`
	StaffName string          `json:"staff_name"`
	Period    string          `json:"period"`
	Months    []TimelineMonth `json:"months"`
}

// OverAllocationReport summarizes a staff member's conflicts in a window.
type OverAllocationReport struct {
	StaffID      string          `json:"staff_id"`
	StaffName    string          `json:"staff_name"`
	HasConflicts bool            `json:"has_conflicts"`
	Severity     string          `json:"severity,omitempty"`
	MaxExcess    float64         `json:"max_excess"`
	Conflicts    []TimelineMonth `json:"conflicts"`
}

// AllocationWarning describes one month a proposed assignment would overload.
type AllocationWarning struct {
	Month              string  `json:"month"`
	ExistingAllocation float64 `json:"existing_allocation"`
	ProposedAllocation float64 `json:"proposed_allocation"`
	TotalAllocation    float64 `json:"total_allocation"`
	Excess             float64 `json:"excess"`
}

// AllocationValidation is the advisory result of checking a proposed
// assignment. CanOverride is always true: the engine warns, people decide.
type AllocationValidation struct {
	IsValid     bool                `json:"is_valid"`
	CanOverride bool                `json:"can_override"`
	Warnings    []AllocationWarning `json:"warnings"`
}

// OrgOverAllocations is the organization-wide conflict roster.
type OrgOverAllocations struct {
	Period          string                 `json:"period"`
	TotalStaff      int                    `json:"total_staff"`
	ConflictedStaff int                    `json:"conflicted_staff"`
	CleanStaff      int                    `json:"clean_staff"`
	Conflicts       []OverAllocationReport `json:"conflicts"`
}

// StaffAllocationTimeline computes the per-month allocation totals for one
// staff member over [start, end]. Each month sums the effective allocation of
// every assignment overlapping it, resolved against that month's window.
func (e *Engine) StaffAllocationTimeline(ctx context.Context, staffID string, start, end Date) (*AllocationTimeline, error) {
	staff, err := e.Store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, notFound("staff", staffID)
	}
	if end.Before(start) {
		return nil, invalid("end_date", "end date must not precede start date")
	}

	assignments, err := e.Store.ListAssignmentsOverlapping(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}

	timeline := &AllocationTimeline{
		StaffID:   staffID,
		StaffName: staff.Name,
		Period:    fmt.Sprintf("%s to %s", start, end),
	}

	projectNames := map[string]string{}
	for _, m := range MonthsInRange(start, end) {
		month := TimelineMonth{Month: m.Key(), Assignments: []TimelineShare{}}
		window := Period{Start: m.Start(), End: m.End()}

		for _, a := range assignments {
			if !a.Overlaps(window.Start, window.End) {
				continue
			}
			pct, err := e.EffectiveAllocation(ctx, a, &window)
			if err != nil {
				return nil, err
			}
			name, ok := projectNames[a.ProjectID]
			if !ok {
				if p, err := e.Store.GetProject(ctx, a.ProjectID); err != nil {
					return nil, err
				} else if p != nil {
					name = p.Name
				}
				projectNames[a.ProjectID] = name
			}
			month.TotalAllocation += pct
			month.Assignments = append(month.Assignments, TimelineShare{
				AssignmentID:   a.ID,
				ProjectID:      a.ProjectID,
				ProjectName:    name,
				AllocationType: a.AllocationType,
				Percentage:     pct,
				HoursPerWeek:   a.HoursPerWeek,
			})
		}
		month.IsOverAllocated = month.TotalAllocation > 100
		timeline.Months = append(timeline.Months, month)
	}
	return timeline, nil
}

// DetectOverAllocations flags the months in [start, end] where a staff
// member's combined allocation exceeds 100%, with a severity derived from the
// single worst month.
func (e *Engine) DetectOverAllocations(ctx context.Context, staffID string, start, end Date) (*OverAllocationReport, error) {
	timeline, err := e.StaffAllocationTimeline(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}

	report := &OverAllocationReport{
		StaffID:   timeline.StaffID,
		StaffName: timeline.StaffName,
		Conflicts: []TimelineMonth{},
	}
	for _, m := range timeline.Months {
		if !m.IsOverAllocated {
			continue
		}
		report.Conflicts = append(report.Conflicts, m)
		if excess := m.TotalAllocation - 100; excess > report.MaxExcess {
			report.MaxExcess = excess
		}
	}
	if len(report.Conflicts) > 0 {
		report.HasConflicts = true
		report.Severity = severityForExcess(report.MaxExcess)
	}
	return report, nil
}

// ValidateAssignmentAllocation checks what a proposed assignment would do to
// a staff member's monthly totals. excludeAssignmentID skips one existing
// assignment so edits are not counted against themselves. The result never
// blocks the save.
func (e *Engine) ValidateAssignmentAllocation(ctx context.Context, staffID string, start, end Date, proposedPct float64, excludeAssignmentID string) (*AllocationValidation, error) {
	staff, err := e.Store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, notFound("staff", staffID)
	}

	assignments, err := e.Store.ListAssignmentsOverlapping(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}

	result := &AllocationValidation{IsValid: true, CanOverride: true, Warnings: []AllocationWarning{}}
	for _, m := range MonthsInRange(start, end) {
		window := Period{Start: m.Start(), End: m.End()}
		var existing float64
		for _, a := range assignments {
			if a.ID == excludeAssignmentID || !a.Overlaps(window.Start, window.End) {
				continue
			}
			pct, err := e.EffectiveAllocation(ctx, a, &window)
			if err != nil {
				return nil, err
			}
			existing += pct
		}
		total := existing + proposedPct
		if total > 100 {
			result.IsValid = false
			result.Warnings = append(result.Warnings, AllocationWarning{
				Month:              m.Key(),
				ExistingAllocation: existing,
				ProposedAllocation: proposedPct,
				TotalAllocation:    total,
				Excess:             total - 100,
			})
		}
	}
	return result, nil
}

// OrganizationOverAllocations runs conflict detection across every staff
// member. Conflicted reports come first, ordered by severity then by worst
// excess.
func (e *Engine) OrganizationOverAllocations(ctx context.Context, start, end Date) (*OrgOverAllocations, error) {
	staff, err := e.Store.ListStaff(ctx)
	if err != nil {
		return nil, err
	}

	out := &OrgOverAllocations{
		Period:     fmt.Sprintf("%s to %s", start, end),
		TotalStaff: len(staff),
		Conflicts:  []OverAllocationReport{},
	}
	for _, s := range staff {
		report, err := e.DetectOverAllocations(ctx, s.ID, start, end)
		if err != nil {
			return nil, err
		}
		if report.HasConflicts {
			out.Conflicts = append(out.Conflicts, *report)
		}
	}
	out.ConflictedStaff = len(out.Conflicts)
	out.CleanStaff = out.TotalStaff - out.ConflictedStaff

	sort.SliceStable(out.Conflicts, func(i, j int) bool {
		a, b := out.Conflicts[i], out.Conflicts[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) < severityRank(b.Severity)
		}
		return a.MaxExcess > b.MaxExcess
	})
	return out, nil
}
