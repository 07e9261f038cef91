/*
forecast.go - Cost and forecast aggregation

Three granularities share the same building blocks (overlap days, effective
allocation, rate resolution):

  - single project: Monday-aligned weekly buckets, raw and allocated hours,
    billable/internal cost and margin totals
  - organization: per-project forecasts summed into week-keyed totals plus
    per-staff utilization against a 40h/week baseline
  - monthly planning report: calendar-month buckets over real assignments
    and unreplaced ghost staff, with a per-role rollup

Raw and allocated figures are always produced together: raw ignores the
allocation percentage, allocated applies it.
*/
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// PeriodDTO is the wire form of a forecast window.
type PeriodDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// =============================================================================
// SINGLE-PROJECT WEEKLY FORECAST
// =============================================================================

// ProjectForecast is the weekly staffing and cost breakdown for one project.
type ProjectForecast struct {
	ProjectID         string                        `json:"project_id"`
	ProjectName       string                        `json:"project_name"`
	ForecastPeriod    PeriodDTO                     `json:"forecast_period"`
	WeeklyStaffing    map[string]float64            `json:"weekly_staffing"`
	WeeklyStaffingRaw map[string]float64            `json:"weekly_staffing_raw"`
	StaffBreakdown    map[string]map[string]float64 `json:"staff_breakdown"`

	TotalEstimatedCost    decimal.Decimal `json:"total_estimated_cost"`
	TotalAllocatedCost    decimal.Decimal `json:"total_allocated_cost"`
	TotalInternalCost     decimal.Decimal `json:"total_internal_cost"`
	TotalAllocatedIntCost decimal.Decimal `json:"total_allocated_internal_cost"`
	Margin                decimal.Decimal `json:"margin"`
	AllocatedMargin       decimal.Decimal `json:"allocated_margin"`

	AssignmentsCount int `json:"assignments_count"`
}

// ProjectStaffingNeeds computes the weekly forecast for a project. The
// period defaults to the project's own dates; a project with neither raises
// ErrProjectUndated. A project with zero assignments returns all-zero
// totals without error.
func (e *Engine) ProjectStaffingNeeds(ctx context.Context, projectID string, start, end *Date) (*ProjectForecast, error) {
	project, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	if start == nil {
		start = project.StartDate
	}
	if end == nil {
		end = project.EndDate
	}
	if start == nil || end == nil {
		return nil, ErrProjectUndated
	}

	assignments, err := e.Store.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.forecastAssignments(ctx, project, assignments, *start, *end)
}

// forecastAssignments builds the weekly forecast from an explicit assignment
// list. Simulation feeds shadow lists through the same path so real and
// hypothetical forecasts can never diverge in shape.
func (e *Engine) forecastAssignments(ctx context.Context, project *Project, assignments []Assignment, start, end Date) (*ProjectForecast, error) {
	f := &ProjectForecast{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ForecastPeriod: PeriodDTO{
			StartDate: start.String(),
			EndDate:   end.String(),
		},
		WeeklyStaffing:        map[string]float64{},
		WeeklyStaffingRaw:     map[string]float64{},
		StaffBreakdown:        map[string]map[string]float64{},
		TotalEstimatedCost:    decimal.Zero,
		TotalAllocatedCost:    decimal.Zero,
		TotalInternalCost:     decimal.Zero,
		TotalAllocatedIntCost: decimal.Zero,
		Margin:                decimal.Zero,
		AllocatedMargin:       decimal.Zero,
		AssignmentsCount:      len(assignments),
	}

	staffNames := map[string]string{}
	for _, a := range assignments {
		if _, ok := staffNames[a.StaffID]; ok {
			continue
		}
		staff, err := e.Store.GetStaff(ctx, a.StaffID)
		if err != nil {
			return nil, err
		}
		if staff != nil {
			staffNames[a.StaffID] = staff.Name
		} else {
			staffNames[a.StaffID] = a.StaffID
		}
	}

	// Monday-aligned weekly buckets across the whole window.
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(7) {
		weekStart := cur.MondayOf()
		weekEnd := weekStart.AddDays(6)
		weekKey := weekStart.String()

		for _, a := range assignments {
			raw, allocated, err := e.AssignmentHours(ctx, a, Period{Start: weekStart, End: weekEnd})
			if err != nil {
				return nil, err
			}
			if raw <= 0 {
				continue
			}
			f.WeeklyStaffing[weekKey] += allocated
			f.WeeklyStaffingRaw[weekKey] += raw
			if f.StaffBreakdown[weekKey] == nil {
				f.StaffBreakdown[weekKey] = map[string]float64{}
			}
			f.StaffBreakdown[weekKey][staffNames[a.StaffID]] += allocated
		}
	}

	// Cost totals over the full window.
	window := Period{Start: start, End: end}
	for _, a := range assignments {
		raw, allocated, err := e.AssignmentHours(ctx, a, window)
		if err != nil {
			return nil, err
		}
		if raw <= 0 {
			continue
		}

		billable, err := e.EffectiveBillableRate(ctx, a)
		if err != nil {
			return nil, err
		}
		internal := decimal.Zero
		if staff, err := e.Store.GetStaff(ctx, a.StaffID); err != nil {
			return nil, err
		} else if staff != nil {
			internal = staff.InternalHourlyCost
		}

		f.TotalEstimatedCost = f.TotalEstimatedCost.Add(MoneyFromHours(raw, billable.Rate))
		f.TotalAllocatedCost = f.TotalAllocatedCost.Add(MoneyFromHours(allocated, billable.Rate))
		f.TotalInternalCost = f.TotalInternalCost.Add(MoneyFromHours(raw, internal))
		f.TotalAllocatedIntCost = f.TotalAllocatedIntCost.Add(MoneyFromHours(allocated, internal))
	}
	f.Margin = f.TotalEstimatedCost.Sub(f.TotalInternalCost)
	f.AllocatedMargin = f.TotalAllocatedCost.Sub(f.TotalAllocatedIntCost)

	return f, nil
}

// =============================================================================
// PROJECT COST & BUDGET
// =============================================================================

// ProjectCost is the cost rollup for one project against its budget.
type ProjectCost struct {
	ProjectID        string                     `json:"project_id"`
	ProjectName      string                     `json:"project_name"`
	TotalCost        decimal.Decimal            `json:"total_cost"`
	StaffCosts       map[string]decimal.Decimal `json:"staff_costs"`
	AssignmentsCount int                        `json:"assignments_count"`
	Budget           *decimal.Decimal           `json:"budget"`
	BudgetVariance   *decimal.Decimal           `json:"budget_variance"`
}

// CalculateProjectCost totals billable cost per assignment over each
// assignment's own range, grouped by staff name.
func (e *Engine) CalculateProjectCost(ctx context.Context, projectID string) (*ProjectCost, error) {
	project, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	assignments, err := e.Store.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	result := &ProjectCost{
		ProjectID:        project.ID,
		ProjectName:      project.Name,
		TotalCost:        decimal.Zero,
		StaffCosts:       map[string]decimal.Decimal{},
		AssignmentsCount: len(assignments),
		Budget:           project.Budget,
	}

	for _, a := range assignments {
		_, allocated, err := e.AssignmentHours(ctx, a, a.Range())
		if err != nil {
			return nil, err
		}
		rate, err := e.EffectiveBillableRate(ctx, a)
		if err != nil {
			return nil, err
		}
		cost := MoneyFromHours(allocated, rate.Rate)
		result.TotalCost = result.TotalCost.Add(cost)

		name := a.StaffID
		if staff, err := e.Store.GetStaff(ctx, a.StaffID); err != nil {
			return nil, err
		} else if staff != nil {
			name = staff.Name
		}
		result.StaffCosts[name] = result.StaffCosts[name].Add(cost)
	}

	if project.Budget != nil {
		variance := project.Budget.Sub(result.TotalCost)
		result.BudgetVariance = &variance
	}
	return result, nil
}

// =============================================================================
// ORGANIZATION-WIDE FORECAST
// =============================================================================

// OrgWeek is one week's totals across all forecastable projects.
type OrgWeek struct {
	TotalHours float64            `json:"total_hours"`
	Projects   map[string]float64 `json:"projects"`
}

// StaffUtilization compares assigned hours against standard capacity.
type StaffUtilization struct {
	StaffID         string  `json:"staff_id"`
	Role            string  `json:"role"`
	AssignedHours   float64 `json:"assigned_hours"`
	AvailableHours  float64 `json:"available_hours"`
	UtilizationRate float64 `json:"utilization_rate"`
	OverAllocated   bool    `json:"overallocated"`
}

// OrganizationForecast aggregates every planning/active project.
type OrganizationForecast struct {
	ForecastPeriod     PeriodDTO                    `json:"forecast_period"`
	WeeklyForecast     map[string]*OrgWeek          `json:"weekly_forecast"`
	ProjectForecasts   map[string]*ProjectForecast  `json:"project_forecasts"`
	StaffUtilization   map[string]*StaffUtilization `json:"staff_utilization"`
	TotalEstimatedCost decimal.Decimal              `json:"total_estimated_cost"`
	ProjectsCount      int                          `json:"projects_count"`
}

// CalculateOrganizationForecast runs the single-project forecast for every
// project with status planning or active and sums weekly totals. Projects
// without dates are skipped, not fatal.
func (e *Engine) CalculateOrganizationForecast(ctx context.Context, start, end Date) (*OrganizationForecast, error) {
	if end.Before(start) {
		return nil, invalid("end_date", "end date must not precede start date")
	}

	projects, err := e.Store.ListProjects(ctx, ProjectFilter{
		Statuses: []ProjectStatus{StatusPlanning, StatusActive},
	})
	if err != nil {
		return nil, err
	}

	out := &OrganizationForecast{
		ForecastPeriod:     PeriodDTO{StartDate: start.String(), EndDate: end.String()},
		WeeklyForecast:     map[string]*OrgWeek{},
		ProjectForecasts:   map[string]*ProjectForecast{},
		StaffUtilization:   map[string]*StaffUtilization{},
		TotalEstimatedCost: decimal.Zero,
	}

	for _, p := range projects {
		if p.IsFolder {
			continue
		}
		pf, err := e.ProjectStaffingNeeds(ctx, p.ID, &start, &end)
		if err != nil {
			if IsValidation(err) {
				continue // undated project
			}
			return nil, err
		}
		out.ProjectForecasts[p.ID] = pf
		out.TotalEstimatedCost = out.TotalEstimatedCost.Add(pf.TotalEstimatedCost)

		for week, hours := range pf.WeeklyStaffing {
			w := out.WeeklyForecast[week]
			if w == nil {
				w = &OrgWeek{Projects: map[string]float64{}}
				out.WeeklyForecast[week] = w
			}
			w.TotalHours += hours
			w.Projects[p.Name] += hours
		}
	}
	out.ProjectsCount = len(out.ProjectForecasts)

	staff, err := e.Store.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range staff {
		util, err := e.StaffCapacity(ctx, s.ID, start, end)
		if err != nil {
			return nil, err
		}
		out.StaffUtilization[s.Name] = util
	}

	return out, nil
}

// StaffCapacity sums the staff member's assigned hours in the window and
// compares against period-days/7 × 40 standard hours.
func (e *Engine) StaffCapacity(ctx context.Context, staffID string, start, end Date) (*StaffUtilization, error) {
	staff, err := e.Store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, notFound("staff", staffID)
	}
	role, err := e.Store.GetRole(ctx, staff.RoleID)
	if err != nil {
		return nil, err
	}

	assignments, err := e.Store.ListAssignmentsOverlapping(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}
	window := Period{Start: start, End: end}
	var assigned float64
	for _, a := range assignments {
		raw, _, err := e.AssignmentHours(ctx, a, window)
		if err != nil {
			return nil, err
		}
		assigned += raw
	}

	available := window.Weeks() * StandardWeeklyHours
	util := &StaffUtilization{
		StaffID:        staff.ID,
		AssignedHours:  assigned,
		AvailableHours: available,
		OverAllocated:  assigned > available,
	}
	if role != nil {
		util.Role = role.Name
	}
	if available > 0 {
		util.UtilizationRate = assigned / available
	}
	return util, nil
}

// =============================================================================
// STAFFING GAPS
// =============================================================================

// StaffingGap flags a week with zero staffed hours on a project.
type StaffingGap struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Week        string `json:"week"`
	Message     string `json:"message"`
}

// DetectStaffingGaps scans one project (projectID != "") or every
// planning/active project for weeks with no staffed hours.
func (e *Engine) DetectStaffingGaps(ctx context.Context, projectID string, start, end *Date) ([]StaffingGap, error) {
	if projectID != "" {
		return e.projectGaps(ctx, projectID, start, end)
	}

	projects, err := e.Store.ListProjects(ctx, ProjectFilter{
		Statuses: []ProjectStatus{StatusPlanning, StatusActive},
	})
	if err != nil {
		return nil, err
	}
	var gaps []StaffingGap
	for _, p := range projects {
		if p.IsFolder {
			continue
		}
		pg, err := e.projectGaps(ctx, p.ID, start, end)
		if err != nil {
			return nil, err
		}
		gaps = append(gaps, pg...)
	}
	return gaps, nil
}

func (e *Engine) projectGaps(ctx context.Context, projectID string, start, end *Date) ([]StaffingGap, error) {
	forecast, err := e.ProjectStaffingNeeds(ctx, projectID, start, end)
	if err != nil {
		if IsValidation(err) {
			return nil, nil // undated projects have nothing to scan
		}
		return nil, err
	}

	// Walk every week of the window: weeks with no staffed hours never get a
	// bucket in the forecast maps, and those are exactly the gaps.
	fStart, err := ParseDate(forecast.ForecastPeriod.StartDate)
	if err != nil {
		return nil, err
	}
	fEnd, err := ParseDate(forecast.ForecastPeriod.EndDate)
	if err != nil {
		return nil, err
	}

	var gaps []StaffingGap
	seen := map[string]bool{}
	for cur := fStart; cur.BeforeOrEqual(fEnd); cur = cur.AddDays(7) {
		w := cur.MondayOf().String()
		if seen[w] {
			continue
		}
		seen[w] = true
		if forecast.WeeklyStaffingRaw[w] == 0 {
			gaps = append(gaps, StaffingGap{
				Type:        "project_gap",
				ProjectID:   forecast.ProjectID,
				ProjectName: forecast.ProjectName,
				Week:        w,
				Message:     "No staffing assigned for week of " + w,
			})
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Week < gaps[j].Week })
	return gaps, nil
}
