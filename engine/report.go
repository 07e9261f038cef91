/*
report.go - Monthly planning report

Combines real assignments and unreplaced ghost staff for a project (or a
folder with its sub-projects) into calendar-month buckets: hours, internal
cost, billable cost, margin, and distinct headcount, plus a per-role rollup
sorted by total billable and a flat entry list sorted by start date.
*/
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyBucket is one calendar month of the report.
type MonthlyBucket struct {
	Month        string          `json:"month"`
	Hours        float64         `json:"hours"`
	InternalCost decimal.Decimal `json:"internal_cost"`
	BillableCost decimal.Decimal `json:"billable_cost"`
	Margin       decimal.Decimal `json:"margin"`
	Headcount    int             `json:"headcount"`
}

// RoleRollup totals one role-on-project label across the report window.
type RoleRollup struct {
	Role          string          `json:"role"`
	Hours         float64         `json:"hours"`
	BillableTotal decimal.Decimal `json:"billable_total"`
	InternalTotal decimal.Decimal `json:"internal_total"`
	Headcount     int             `json:"headcount"`
}

// ReportEntry is one contributing assignment or ghost placeholder.
type ReportEntry struct {
	Kind         string          `json:"kind"` // "assignment" or "ghost"
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	ProjectID    string          `json:"project_id"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	HoursPerWeek float64         `json:"hours_per_week"`
	Allocation   float64         `json:"allocation_percentage"`
	BillableRate decimal.Decimal `json:"billable_rate"`
	RateSource   RateSource      `json:"rate_source"`
}

// MonthlyPlanningReport is the full report payload.
type MonthlyPlanningReport struct {
	ProjectID           string                    `json:"project_id"`
	ProjectName         string                    `json:"project_name"`
	IncludesSubprojects bool                      `json:"includes_subprojects"`
	MonthlyBreakdown    map[string]*MonthlyBucket `json:"monthly_breakdown"`
	RoleRollup          []RoleRollup              `json:"role_rollup"`
	Entries             []ReportEntry             `json:"entries"`
	TotalBillable       decimal.Decimal           `json:"total_billable"`
	TotalInternal       decimal.Decimal           `json:"total_internal"`
	TotalMargin         decimal.Decimal           `json:"total_margin"`
}

// reportLine is the common shape assignments and ghosts reduce to before
// bucketing; ghosts have no staff, assignments have no role entity.
type reportLine struct {
	kind         string
	key          string // distinct-headcount identity
	name         string
	roleLabel    string
	projectID    string
	start, end   Date
	hoursPerWeek float64
	allocationOf func(p Period) (float64, error)
	billable     RateResolution
	internalRate decimal.Decimal
}

// CalculateMonthlyPlanningReport builds the month-bucketed staffing and
// cost report for a project or folder.
func (e *Engine) CalculateMonthlyPlanningReport(ctx context.Context, projectID string, includeSubprojects bool) (*MonthlyPlanningReport, error) {
	root, err := e.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, notFound("project", projectID)
	}

	projectIDs, err := e.collectProjectTree(ctx, root, includeSubprojects)
	if err != nil {
		return nil, err
	}

	var lines []reportLine
	for _, pid := range projectIDs {
		pls, err := e.projectReportLines(ctx, pid)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pls...)
	}

	report := &MonthlyPlanningReport{
		ProjectID:           root.ID,
		ProjectName:         root.Name,
		IncludesSubprojects: includeSubprojects,
		MonthlyBreakdown:    map[string]*MonthlyBucket{},
		TotalBillable:       decimal.Zero,
		TotalInternal:       decimal.Zero,
		TotalMargin:         decimal.Zero,
	}
	if len(lines) == 0 {
		return report, nil
	}

	// Month span across all contributing entries.
	minStart, maxEnd := lines[0].start, lines[0].end
	for _, l := range lines[1:] {
		if l.start.Before(minStart) {
			minStart = l.start
		}
		if l.end.After(maxEnd) {
			maxEnd = l.end
		}
	}

	headcount := map[string]map[string]bool{}
	rollup := map[string]*RoleRollup{}

	for _, m := range MonthsInRange(minStart, maxEnd) {
		monthPeriod := Period{Start: m.Start(), End: m.End()}
		key := m.Key()

		for _, l := range lines {
			days := OverlapDays(&l.start, &l.end, &monthPeriod.Start, &monthPeriod.End)
			if days <= 0 {
				continue
			}
			pct, err := l.allocationOf(monthPeriod)
			if err != nil {
				return nil, err
			}
			hours := HoursForOverlap(days, l.hoursPerWeek) * pct / 100.0
			billable := MoneyFromHours(hours, l.billable.Rate)
			internal := MoneyFromHours(hours, l.internalRate)

			bucket := report.MonthlyBreakdown[key]
			if bucket == nil {
				bucket = &MonthlyBucket{Month: key,
					InternalCost: decimal.Zero, BillableCost: decimal.Zero, Margin: decimal.Zero}
				report.MonthlyBreakdown[key] = bucket
			}
			bucket.Hours += hours
			bucket.BillableCost = bucket.BillableCost.Add(billable)
			bucket.InternalCost = bucket.InternalCost.Add(internal)
			bucket.Margin = bucket.BillableCost.Sub(bucket.InternalCost)

			if headcount[key] == nil {
				headcount[key] = map[string]bool{}
			}
			headcount[key][l.key] = true

			r := rollup[l.roleLabel]
			if r == nil {
				r = &RoleRollup{Role: l.roleLabel,
					BillableTotal: decimal.Zero, InternalTotal: decimal.Zero}
				rollup[l.roleLabel] = r
			}
			r.Hours += hours
			r.BillableTotal = r.BillableTotal.Add(billable)
			r.InternalTotal = r.InternalTotal.Add(internal)

			report.TotalBillable = report.TotalBillable.Add(billable)
			report.TotalInternal = report.TotalInternal.Add(internal)
		}
	}
	report.TotalMargin = report.TotalBillable.Sub(report.TotalInternal)

	for key, members := range headcount {
		report.MonthlyBreakdown[key].Headcount = len(members)
	}

	// Distinct contributors per role.
	roleMembers := map[string]map[string]bool{}
	for _, l := range lines {
		if roleMembers[l.roleLabel] == nil {
			roleMembers[l.roleLabel] = map[string]bool{}
		}
		roleMembers[l.roleLabel][l.key] = true
	}
	for label, r := range rollup {
		r.Headcount = len(roleMembers[label])
		report.RoleRollup = append(report.RoleRollup, *r)
	}
	sort.Slice(report.RoleRollup, func(i, j int) bool {
		return report.RoleRollup[i].BillableTotal.GreaterThan(report.RoleRollup[j].BillableTotal)
	})

	sort.Slice(lines, func(i, j int) bool { return lines[i].start.Before(lines[j].start) })
	for _, l := range lines {
		pct, err := l.allocationOf(Period{Start: l.start, End: l.end})
		if err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, ReportEntry{
			Kind:         l.kind,
			Name:         l.name,
			Role:         l.roleLabel,
			ProjectID:    l.projectID,
			StartDate:    l.start.String(),
			EndDate:      l.end.String(),
			HoursPerWeek: l.hoursPerWeek,
			Allocation:   pct,
			BillableRate: l.billable.Rate,
			RateSource:   l.billable.Source,
		})
	}

	return report, nil
}

// collectProjectTree returns the root id plus, when requested, every
// descendant project id (breadth-first, cycle-guarded).
func (e *Engine) collectProjectTree(ctx context.Context, root *Project, includeSubprojects bool) ([]string, error) {
	ids := []string{root.ID}
	if !includeSubprojects {
		return ids, nil
	}
	visited := map[string]bool{root.ID: true}
	queue := []string{root.ID}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		children, err := e.Store.ListProjects(ctx, ProjectFilter{ParentProjectID: &pid})
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			ids = append(ids, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return ids, nil
}

func (e *Engine) projectReportLines(ctx context.Context, projectID string) ([]reportLine, error) {
	var lines []reportLine

	assignments, err := e.Store.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		a := a
		staff, err := e.Store.GetStaff(ctx, a.StaffID)
		if err != nil {
			return nil, err
		}
		billable, err := e.EffectiveBillableRate(ctx, a)
		if err != nil {
			return nil, err
		}
		line := reportLine{
			kind:         "assignment",
			key:          "staff:" + a.StaffID,
			roleLabel:    a.RoleOnProject,
			projectID:    projectID,
			start:        a.StartDate,
			end:          a.EndDate,
			hoursPerWeek: a.HoursPerWeek,
			billable:     billable,
			allocationOf: func(p Period) (float64, error) { return e.EffectiveAllocation(ctx, a, &p) },
		}
		if staff != nil {
			line.name = staff.Name
			line.internalRate = staff.InternalHourlyCost
			if line.roleLabel == "" {
				if role, err := e.Store.GetRole(ctx, staff.RoleID); err != nil {
					return nil, err
				} else if role != nil {
					line.roleLabel = role.Name
				}
			}
		} else {
			line.name = a.StaffID
			line.internalRate = decimal.Zero
		}
		lines = append(lines, line)
	}

	ghosts, err := e.Store.ListGhostStaffByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, g := range ghosts {
		g := g
		if g.Replaced() {
			continue // the replacing assignment already counts
		}
		role, err := e.Store.GetRole(ctx, g.RoleID)
		if err != nil {
			return nil, err
		}
		billable, err := e.GhostBillableRate(ctx, g)
		if err != nil {
			return nil, err
		}
		line := reportLine{
			kind:         "ghost",
			key:          "ghost:" + g.ID,
			name:         g.Name,
			projectID:    projectID,
			start:        g.StartDate,
			end:          g.EndDate,
			hoursPerWeek: g.HoursPerWeek,
			billable:     billable,
			internalRate: decimal.Zero,
			allocationOf: func(Period) (float64, error) { return g.AllocationPercentage, nil },
		}
		if role != nil {
			line.roleLabel = role.Name
			line.internalRate = role.InternalHourlyCost
		}
		lines = append(lines, line)
	}

	return lines, nil
}
