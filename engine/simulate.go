/*
simulate.go - What-if scenario simulation

Builds an in-memory shadow assignment list (existing minus removals, plus
hour modifications, plus proposed additions), runs the same weekly forecast
over it, and reports the delta against the real current forecast. Nothing
is ever persisted; the simulation reads shared state but never writes.
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// HoursChange modifies one existing assignment's weekly hours in the shadow.
type HoursChange struct {
	AssignmentID string  `json:"assignment_id"`
	HoursPerWeek float64 `json:"hours_per_week"`
}

// ProposedAssignment is a hypothetical new assignment. When RoleOnProject is
// set the project's rate resolver prices it, otherwise the staff member's
// role default applies, same as a real assignment.
type ProposedAssignment struct {
	StaffID              string  `json:"staff_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoursPerWeek         float64 `json:"hours_per_week"`
	RoleOnProject        string  `json:"role_on_project,omitempty"`
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
}

// ScenarioChanges is the full change set for a simulation.
type ScenarioChanges struct {
	RemoveAssignments []string             `json:"remove_assignments,omitempty"`
	ModifyHours       []HoursChange        `json:"modify_hours,omitempty"`
	AddAssignments    []ProposedAssignment `json:"add_assignments,omitempty"`
}

// SimulationResult compares the simulated forecast to the current one.
type SimulationResult struct {
	CurrentForecast      *ProjectForecast `json:"current_forecast"`
	SimulatedForecast    *ProjectForecast `json:"simulated_forecast"`
	ChangesApplied       ScenarioChanges  `json:"changes_applied"`
	CostDifference       decimal.Decimal  `json:"cost_difference"`
	AssignmentDifference int              `json:"assignment_difference"`
	PercentChange        float64          `json:"percent_change"`
}

// SimulateScenario computes current-vs-hypothetical forecasts for one
// project. An empty change set yields zero deltas by construction.
func (e *Engine) SimulateScenario(ctx context.Context, projectID string, changes ScenarioChanges) (*SimulationResult, error) {
	project, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}
	window, ok := project.DatedPeriod()
	if !ok {
		return nil, ErrProjectUndated
	}

	existing, err := e.Store.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	current, err := e.forecastAssignments(ctx, project, existing, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	shadow, err := e.buildShadow(ctx, projectID, existing, changes)
	if err != nil {
		return nil, err
	}
	simulated, err := e.forecastAssignments(ctx, project, shadow, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	result := &SimulationResult{
		CurrentForecast:      current,
		SimulatedForecast:    simulated,
		ChangesApplied:       changes,
		CostDifference:       simulated.TotalAllocatedCost.Sub(current.TotalAllocatedCost),
		AssignmentDifference: len(shadow) - len(existing),
	}
	if !current.TotalAllocatedCost.IsZero() {
		diff, _ := result.CostDifference.Div(current.TotalAllocatedCost).Float64()
		result.PercentChange = diff * 100
	}
	return result, nil
}

// buildShadow applies the change set to a copy of the assignment list.
func (e *Engine) buildShadow(ctx context.Context, projectID string, existing []Assignment, changes ScenarioChanges) ([]Assignment, error) {
	removed := map[string]bool{}
	for _, id := range changes.RemoveAssignments {
		removed[id] = true
	}
	modified := map[string]float64{}
	for _, m := range changes.ModifyHours {
		if m.HoursPerWeek <= 0 {
			return nil, invalid("hours_per_week", "must be a positive number")
		}
		modified[m.AssignmentID] = m.HoursPerWeek
	}

	shadow := make([]Assignment, 0, len(existing)+len(changes.AddAssignments))
	for _, a := range existing {
		if removed[a.ID] {
			continue
		}
		if hours, ok := modified[a.ID]; ok {
			a.HoursPerWeek = hours
		}
		shadow = append(shadow, a)
	}

	for i, p := range changes.AddAssignments {
		start, err := ParseDate(p.StartDate)
		if err != nil {
			return nil, invalid("start_date", err.Error())
		}
		end, err := ParseDate(p.EndDate)
		if err != nil {
			return nil, invalid("end_date", err.Error())
		}
		if !end.After(start) {
			return nil, invalid("end_date", "end date must be after start date")
		}
		if p.HoursPerWeek <= 0 {
			return nil, invalid("hours_per_week", "must be a positive number")
		}
		staff, err := e.Store.GetStaff(ctx, p.StaffID)
		if err != nil {
			return nil, err
		}
		if staff == nil {
			return nil, notFound("staff", p.StaffID)
		}

		pct := p.AllocationPercentage
		if pct == 0 {
			pct = 100
		}
		if pct < 0 || pct > 100 {
			return nil, invalid("allocation_percentage", "must be between 0 and 100")
		}

		shadow = append(shadow, Assignment{
			ID:                   fmt.Sprintf("proposed-%d", i+1),
			StaffID:              p.StaffID,
			ProjectID:            projectID,
			StartDate:            start,
			EndDate:              end,
			HoursPerWeek:         p.HoursPerWeek,
			RoleOnProject:        p.RoleOnProject,
			AllocationType:       AllocationPercentageTotal,
			AllocationPercentage: pct,
		})
	}
	return shadow, nil
}
