/*
planning.go - Planning exercise coverage analysis and materialization

A planning exercise is a sandbox of hypothetical projects with role
requirements offset in months from each project's start. The analyzer turns
those into a role-by-month demand grid, reduces the grid to peak-month
minimum headcounts, and compares against real staff availability. Applying
an exercise materializes it into real projects, role rates, and ghost staff;
application is one-way.
*/
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// RoleMonthNeed is the demand for one role in one month.
type RoleMonthNeed struct {
	RequiredCount int     `json:"required_count"`
	FTE           float64 `json:"fte"`
}

// RoleCoverage is one role's demand across the exercise's month span.
type RoleCoverage struct {
	RoleID   string                   `json:"role_id"`
	RoleName string                   `json:"role_name"`
	ByMonth  map[string]RoleMonthNeed `json:"by_month"`
}

// PlanningCoverage is the full demand grid for an exercise.
type PlanningCoverage struct {
	ExerciseID   string         `json:"exercise_id"`
	ExerciseName string         `json:"exercise_name"`
	Months       []string       `json:"months"`
	Roles        []RoleCoverage `json:"roles"`
}

// RoleStaffingNeed reduces one role's demand grid to a peak-month headcount.
type RoleStaffingNeed struct {
	RoleID         string      `json:"role_id"`
	RoleName       string      `json:"role_name"`
	Mode           OverlapMode `json:"overlap_mode"`
	PeakMonth      string      `json:"peak_month"`
	PeakCount      int         `json:"peak_count"`
	PeakFTE        float64     `json:"peak_fte"`
	MinimumStaff   int         `json:"minimum_staff"`
	AvailableStaff int         `json:"available_staff"`
	GapToHire      int         `json:"gap_to_hire"`
}

// ApplyResult lists what applying an exercise created (or would create,
// when previewing).
type ApplyResult struct {
	ExerciseID      string            `json:"exercise_id"`
	DryRun          bool              `json:"dry_run"`
	CreatedProjects []Project         `json:"created_projects"`
	CreatedRates    []ProjectRoleRate `json:"created_rates"`
	CreatedGhosts   []GhostStaff      `json:"created_ghosts"`
}

// exerciseRows loads an exercise's planning projects with their role rows.
type exerciseRow struct {
	project PlanningProject
	role    PlanningRole
	period  Period
}

func (e *Engine) exerciseRows(ctx context.Context, exerciseID string) (*PlanningExercise, []exerciseRow, error) {
	ex, err := e.Store.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, nil, err
	}
	if ex == nil {
		return nil, nil, notFound("planning exercise", exerciseID)
	}

	projects, err := e.Store.ListPlanningProjects(ctx, exerciseID)
	if err != nil {
		return nil, nil, err
	}
	var rows []exerciseRow
	for _, p := range projects {
		roles, err := e.Store.ListPlanningRoles(ctx, p.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range roles {
			rows = append(rows, exerciseRow{project: p, role: r, period: r.ActivePeriod(p)})
		}
	}
	return ex, rows, nil
}

// CalculatePlanningCoverage builds the role-by-month demand grid: for every
// calendar month any role requirement touches, the summed required headcount
// and allocation-weighted FTE per role across all contributing projects.
func (e *Engine) CalculatePlanningCoverage(ctx context.Context, exerciseID string) (*PlanningCoverage, error) {
	ex, rows, err := e.exerciseRows(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	coverage := &PlanningCoverage{
		ExerciseID:   ex.ID,
		ExerciseName: ex.Name,
		Months:       []string{},
		Roles:        []RoleCoverage{},
	}
	if len(rows) == 0 {
		return coverage, nil
	}

	// Month span across every requirement of every project.
	span := rows[0].period
	for _, row := range rows[1:] {
		if row.period.Start.Before(span.Start) {
			span.Start = row.period.Start
		}
		if row.period.End.After(span.End) {
			span.End = row.period.End
		}
	}
	for _, m := range MonthsInRange(span.Start, span.End) {
		coverage.Months = append(coverage.Months, m.Key())
	}

	byRole := map[string]*RoleCoverage{}
	roleNames := map[string]string{}
	for _, row := range rows {
		rc, ok := byRole[row.role.RoleID]
		if !ok {
			name, seen := roleNames[row.role.RoleID]
			if !seen {
				if r, err := e.Store.GetRole(ctx, row.role.RoleID); err != nil {
					return nil, err
				} else if r != nil {
					name = r.Name
				}
				roleNames[row.role.RoleID] = name
			}
			rc = &RoleCoverage{RoleID: row.role.RoleID, RoleName: name, ByMonth: map[string]RoleMonthNeed{}}
			byRole[row.role.RoleID] = rc
		}
		pct := row.role.AllocationPercentage
		if pct == 0 {
			pct = 100
		}
		for _, m := range MonthsInRange(row.period.Start, row.period.End) {
			need := rc.ByMonth[m.Key()]
			need.RequiredCount += row.role.Count
			need.FTE += float64(row.role.Count) * pct / 100
			rc.ByMonth[m.Key()] = need
		}
	}

	for _, rc := range byRole {
		coverage.Roles = append(coverage.Roles, *rc)
	}
	sort.Slice(coverage.Roles, func(i, j int) bool {
		return coverage.Roles[i].RoleName < coverage.Roles[j].RoleName
	})
	return coverage, nil
}

// CalculateMinimumStaffPerRole reduces the demand grid to a peak-month
// headcount per role. Conservative mode (dedicated staff per project) takes
// the raw summed count at the peak month; efficient mode (sharable staff)
// takes the ceiling of the peak FTE. A role is treated conservative if any
// of its requirement rows asks for it. Gap-to-hire compares the minimum
// against real staff available at the peak month.
func (e *Engine) CalculateMinimumStaffPerRole(ctx context.Context, exerciseID string) ([]RoleStaffingNeed, error) {
	coverage, err := e.CalculatePlanningCoverage(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	_, rows, err := e.exerciseRows(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	conservative := map[string]bool{}
	for _, row := range rows {
		if row.role.OverlapMode == OverlapConservative {
			conservative[row.role.RoleID] = true
		}
	}

	needs := []RoleStaffingNeed{}
	for _, rc := range coverage.Roles {
		need := RoleStaffingNeed{
			RoleID:   rc.RoleID,
			RoleName: rc.RoleName,
			Mode:     OverlapEfficient,
		}
		if conservative[rc.RoleID] {
			need.Mode = OverlapConservative
		}

		for _, key := range coverage.Months {
			mn, ok := rc.ByMonth[key]
			if !ok {
				continue
			}
			if mn.RequiredCount > need.PeakCount || (mn.RequiredCount == need.PeakCount && need.PeakMonth == "") {
				need.PeakCount = mn.RequiredCount
				need.PeakMonth = key
			}
			if mn.FTE > need.PeakFTE {
				need.PeakFTE = mn.FTE
			}
		}

		if need.Mode == OverlapConservative {
			need.MinimumStaff = need.PeakCount
		} else {
			need.MinimumStaff = int(math.Ceil(need.PeakFTE))
		}

		if need.PeakMonth != "" {
			peak, err := ParseMonth(need.PeakMonth)
			if err != nil {
				return nil, err
			}
			avgPct := 100.0
			if need.PeakCount > 0 {
				avgPct = need.PeakFTE / float64(need.PeakCount) * 100
			}
			suggestions, err := e.SuggestStaff(ctx, rc.RoleID, peak.Start(), peak.End(), avgPct)
			if err != nil {
				return nil, err
			}
			need.AvailableStaff = len(suggestions)
		}
		if gap := need.MinimumStaff - need.AvailableStaff; gap > 0 {
			need.GapToHire = gap
		}
		needs = append(needs, need)
	}
	return needs, nil
}

// ApplyPlanningExercise materializes an exercise: one real project per
// planning project (status "planning"), a rate override per required role
// that has a default billable rate, and one ghost staff placeholder per
// required headcount unit, sequentially named after the role. With dryRun
// the same result is returned without writing anything. Applying twice is
// rejected.
func (e *Engine) ApplyPlanningExercise(ctx context.Context, exerciseID string, dryRun bool) (*ApplyResult, error) {
	ex, rows, err := e.exerciseRows(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if ex.Status == ExerciseApplied {
		return nil, ErrExerciseAlreadyApplied
	}

	result := &ApplyResult{
		ExerciseID:      exerciseID,
		DryRun:          dryRun,
		CreatedProjects: []Project{},
		CreatedRates:    []ProjectRoleRate{},
		CreatedGhosts:   []GhostStaff{},
	}

	projectIDs := map[string]string{} // planning project id -> real project id
	projects, err := e.Store.ListPlanningProjects(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	for _, pp := range projects {
		start := pp.StartDate
		end := pp.StartDate.AddMonths(pp.DurationMonths).AddDays(-1)
		project := Project{
			ID:        uuid.NewString(),
			Name:      pp.Name,
			StartDate: &start,
			EndDate:   &end,
			Status:    StatusPlanning,
			Budget:    pp.Budget,
			Location:  pp.Location,
		}
		projectIDs[pp.ID] = project.ID
		result.CreatedProjects = append(result.CreatedProjects, project)
	}

	ratedRoles := map[string]bool{} // "projectID/roleID" already rated
	ghostSeq := map[string]int{}    // "projectID/roleID" ghost counter
	for _, row := range rows {
		projectID := projectIDs[row.project.ID]
		role, err := e.Store.GetRole(ctx, row.role.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, notFound("role", row.role.RoleID)
		}

		rateKey := projectID + "/" + role.ID
		if role.DefaultBillableRate != nil && !ratedRoles[rateKey] {
			ratedRoles[rateKey] = true
			result.CreatedRates = append(result.CreatedRates, ProjectRoleRate{
				ID:           uuid.NewString(),
				ProjectID:    projectID,
				RoleID:       role.ID,
				BillableRate: *role.DefaultBillableRate,
			})
		}

		hours := row.role.HoursPerWeek
		if hours == 0 {
			hours = StandardWeeklyHours
		}
		pct := row.role.AllocationPercentage
		if pct == 0 {
			pct = 100
		}
		for i := 0; i < row.role.Count; i++ {
			ghostSeq[rateKey]++
			result.CreatedGhosts = append(result.CreatedGhosts, GhostStaff{
				ID:                   uuid.NewString(),
				ProjectID:            projectID,
				RoleID:               role.ID,
				Name:                 fmt.Sprintf("%s #%d", role.Name, ghostSeq[rateKey]),
				StartDate:            row.period.Start,
				EndDate:              row.period.End,
				HoursPerWeek:         hours,
				AllocationPercentage: pct,
			})
		}
	}

	if dryRun {
		return result, nil
	}

	for _, p := range result.CreatedProjects {
		if err := e.Store.SaveProject(ctx, p); err != nil {
			return nil, err
		}
	}
	for _, r := range result.CreatedRates {
		if err := e.Store.SaveRoleRate(ctx, r); err != nil {
			return nil, err
		}
	}
	for _, g := range result.CreatedGhosts {
		if err := e.Store.SaveGhostStaff(ctx, g); err != nil {
			return nil, err
		}
	}
	ex.Status = ExerciseApplied
	if err := e.Store.SaveExercise(ctx, *ex); err != nil {
		return nil, err
	}
	return result, nil
}
