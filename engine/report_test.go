package engine_test

import (
	"context"
	"testing"

	"github.com/warp/staffing-engine/engine"
)

func TestMonthlyPlanningReport_StaffAndGhostInDifferentMonths(t *testing.T) {
	// GIVEN: A January assignment at 50% and a February ghost at 100%
	eng, st := newTestEngine()
	ctx := context.Background()
	seedRole(t, st, "role-1", "Electrician", 45, ratePtr(85))
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 40)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-02-28")
	seedAssignment(t, st, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-01-31"),
		RoleOnProject:        "Electrician",
		AllocationType:       engine.AllocationPercentageTotal,
		AllocationPercentage: 50,
	})
	if err := st.SaveGhostStaff(ctx, engine.GhostStaff{
		ID: "ghost-1", ProjectID: "proj-1", RoleID: "role-1", Name: "Electrician #1",
		StartDate: date(t, "2025-02-01"), EndDate: date(t, "2025-02-28"),
		HoursPerWeek: 40, AllocationPercentage: 100,
	}); err != nil {
		t.Fatalf("seed ghost: %v", err)
	}

	// WHEN: Building the report
	report, err := eng.CalculateMonthlyPlanningReport(ctx, "proj-1", false)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	// THEN: Each contributor lands in its own month bucket
	if len(report.MonthlyBreakdown) != 2 {
		t.Fatalf("months = %d, want 2", len(report.MonthlyBreakdown))
	}
	jan := report.MonthlyBreakdown["2025-01"]
	if jan == nil {
		t.Fatal("missing 2025-01 bucket")
	}
	janHours := 31.0 / 7.0 * 40 * 0.5
	if !approx(jan.Hours, janHours) {
		t.Errorf("january hours = %v, want %v", jan.Hours, janHours)
	}
	if !decimalApprox(jan.BillableCost, money(janHours*85)) {
		t.Errorf("january billable = %s, want %v", jan.BillableCost, janHours*85)
	}
	if !decimalApprox(jan.InternalCost, money(janHours*40)) {
		t.Errorf("january internal = %s, want %v", jan.InternalCost, janHours*40)
	}
	if jan.Headcount != 1 {
		t.Errorf("january headcount = %d, want 1", jan.Headcount)
	}

	feb := report.MonthlyBreakdown["2025-02"]
	if feb == nil {
		t.Fatal("missing 2025-02 bucket")
	}
	febHours := 28.0 / 7.0 * 40
	if !approx(feb.Hours, febHours) {
		t.Errorf("february hours = %v, want %v", feb.Hours, febHours)
	}
	if !decimalApprox(feb.BillableCost, money(febHours*85)) {
		t.Errorf("february billable = %s, want %v", feb.BillableCost, febHours*85)
	}
	// Ghost internal cost comes from the role's internal rate.
	if !decimalApprox(feb.InternalCost, money(febHours*45)) {
		t.Errorf("february internal = %s, want %v", feb.InternalCost, febHours*45)
	}
	if !decimalApprox(feb.Margin, feb.BillableCost.Sub(feb.InternalCost)) {
		t.Errorf("february margin = %s, want billable minus internal", feb.Margin)
	}
	if feb.Headcount != 1 {
		t.Errorf("february headcount = %d, want 1", feb.Headcount)
	}

	// AND: Totals reconcile across the window
	if !decimalApprox(report.TotalMargin, report.TotalBillable.Sub(report.TotalInternal)) {
		t.Errorf("total margin = %s, want billable minus internal", report.TotalMargin)
	}

	// AND: The rollup counts the person and the placeholder separately
	if len(report.RoleRollup) != 1 {
		t.Fatalf("rollup roles = %d, want 1", len(report.RoleRollup))
	}
	if report.RoleRollup[0].Role != "Electrician" {
		t.Errorf("rollup role = %q, want Electrician", report.RoleRollup[0].Role)
	}
	if report.RoleRollup[0].Headcount != 2 {
		t.Errorf("rollup headcount = %d, want 2", report.RoleRollup[0].Headcount)
	}

	// AND: Entries are ordered by start date, assignment first
	if len(report.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(report.Entries))
	}
	if report.Entries[0].Kind != "assignment" || report.Entries[0].Name != "James Okafor" {
		t.Errorf("first entry = %s %q, want the january assignment", report.Entries[0].Kind, report.Entries[0].Name)
	}
	if report.Entries[0].Allocation != 50 {
		t.Errorf("first entry allocation = %v, want 50", report.Entries[0].Allocation)
	}
	if report.Entries[1].Kind != "ghost" || report.Entries[1].Name != "Electrician #1" {
		t.Errorf("second entry = %s %q, want the february ghost", report.Entries[1].Kind, report.Entries[1].Name)
	}
	if report.Entries[1].RateSource != engine.RateSourceRoleDefault {
		t.Errorf("ghost rate source = %q, want role default", report.Entries[1].RateSource)
	}
}

func TestMonthlyPlanningReport_ReplacedGhostExcluded(t *testing.T) {
	// GIVEN: A project whose only ghost has already been replaced
	eng, st := newTestEngine()
	ctx := context.Background()
	seedRole(t, st, "role-1", "Electrician", 45, ratePtr(85))
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 40)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-03-31")
	if err := st.SaveGhostStaff(ctx, engine.GhostStaff{
		ID: "ghost-1", ProjectID: "proj-1", RoleID: "role-1", Name: "Electrician #1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-03-31"),
		HoursPerWeek: 40, AllocationPercentage: 100,
		ReplacedByStaffID: "staff-1",
	}); err != nil {
		t.Fatalf("seed ghost: %v", err)
	}

	// WHEN: Building the report
	report, err := eng.CalculateMonthlyPlanningReport(ctx, "proj-1", false)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	// THEN: The replaced placeholder contributes nothing
	if len(report.MonthlyBreakdown) != 0 {
		t.Errorf("months = %d, want 0", len(report.MonthlyBreakdown))
	}
	if len(report.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(report.Entries))
	}
	if !report.TotalBillable.IsZero() {
		t.Errorf("total billable = %s, want 0", report.TotalBillable)
	}
}

func TestMonthlyPlanningReport_FolderAggregatesSubprojects(t *testing.T) {
	// GIVEN: A region folder with two staffed child projects
	eng, st := newTestEngine()
	ctx := context.Background()
	seedRole(t, st, "role-1", "Electrician", 45, ratePtr(85))
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 40)
	seedStaff(t, st, "staff-2", "Priya Sharma", "role-1", 40)
	if err := st.SaveProject(ctx, engine.Project{
		ID: "folder-1", Name: "North Region", IsFolder: true, Status: engine.StatusActive,
	}); err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	for i, pid := range []string{"proj-a", "proj-b"} {
		if err := st.SaveProject(ctx, engine.Project{
			ID: pid, Name: pid, Status: engine.StatusActive, ParentProjectID: "folder-1",
			StartDate: datePtr(date(t, "2025-01-01")), EndDate: datePtr(date(t, "2025-01-31")),
		}); err != nil {
			t.Fatalf("seed project: %v", err)
		}
		seedAssignment(t, st, engine.Assignment{
			ID: "a-" + pid, StaffID: []string{"staff-1", "staff-2"}[i], ProjectID: pid,
			StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-01-31"),
			RoleOnProject: "Electrician",
		})
	}

	// WHEN: Reporting on the folder including subprojects
	report, err := eng.CalculateMonthlyPlanningReport(ctx, "folder-1", true)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	// THEN: Both children roll into one january bucket
	if !report.IncludesSubprojects {
		t.Error("expected the subproject flag to be set")
	}
	jan := report.MonthlyBreakdown["2025-01"]
	if jan == nil {
		t.Fatal("missing 2025-01 bucket")
	}
	fullMonth := 31.0 / 7.0 * 40
	if !approx(jan.Hours, 2*fullMonth) {
		t.Errorf("january hours = %v, want %v", jan.Hours, 2*fullMonth)
	}
	if jan.Headcount != 2 {
		t.Errorf("january headcount = %d, want 2", jan.Headcount)
	}
	if len(report.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(report.Entries))
	}

	// AND: Without the tree walk the folder itself is empty
	own, err := eng.CalculateMonthlyPlanningReport(ctx, "folder-1", false)
	if err != nil {
		t.Fatalf("folder-only report: %v", err)
	}
	if len(own.MonthlyBreakdown) != 0 {
		t.Errorf("folder-only months = %d, want 0", len(own.MonthlyBreakdown))
	}
}

func TestMonthlyPlanningReport_RollupSortedByBillable(t *testing.T) {
	// GIVEN: An electrician and a laborer working the same month
	eng, st := newTestEngine()
	ctx := context.Background()
	seedRole(t, st, "role-el", "Electrician", 45, ratePtr(85))
	seedRole(t, st, "role-lb", "Laborer", 25, ratePtr(25))
	seedStaff(t, st, "staff-1", "James Okafor", "role-el", 40)
	seedStaff(t, st, "staff-2", "Dan Mwangi", "role-lb", 22)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-01-31")
	seedAssignment(t, st, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-01-31"),
		RoleOnProject: "Electrician",
	})
	seedAssignment(t, st, engine.Assignment{
		ID: "a-2", StaffID: "staff-2", ProjectID: "proj-1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-01-31"),
		RoleOnProject: "Laborer",
	})

	// WHEN: Building the report
	report, err := eng.CalculateMonthlyPlanningReport(ctx, "proj-1", false)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	// THEN: The higher-billing role leads the rollup
	if len(report.RoleRollup) != 2 {
		t.Fatalf("rollup roles = %d, want 2", len(report.RoleRollup))
	}
	if report.RoleRollup[0].Role != "Electrician" {
		t.Errorf("rollup[0] = %q, want Electrician", report.RoleRollup[0].Role)
	}
	if report.RoleRollup[1].Role != "Laborer" {
		t.Errorf("rollup[1] = %q, want Laborer", report.RoleRollup[1].Role)
	}
	if !report.RoleRollup[0].BillableTotal.GreaterThan(report.RoleRollup[1].BillableTotal) {
		t.Error("expected the electrician rollup to out-bill the laborer")
	}
}

func TestMonthlyPlanningReport_UnknownProject_NotFound(t *testing.T) {
	// GIVEN: An empty store
	eng, _ := newTestEngine()

	// WHEN: Reporting on an id that does not exist
	_, err := eng.CalculateMonthlyPlanningReport(context.Background(), "nope", false)

	// THEN: The lookup fails with not-found
	if !engine.IsNotFound(err) {
		t.Errorf("err = %v, want not-found", err)
	}
}
