package store_test

import (
	"context"
	"testing"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
)

func mustDate(t *testing.T, s string) engine.Date {
	t.Helper()
	d, err := engine.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func mustMonth(t *testing.T, s string) engine.Month {
	t.Helper()
	m, err := engine.ParseMonth(s)
	if err != nil {
		t.Fatalf("parse month %q: %v", s, err)
	}
	return m
}

func TestMemory_RoleRoundTrip(t *testing.T) {
	// GIVEN an empty store
	m := store.NewMemory()
	ctx := context.Background()

	// WHEN a role is saved
	if err := m.SaveRole(ctx, engine.Role{ID: "r-1", Name: "Electrician"}); err != nil {
		t.Fatalf("save role: %v", err)
	}

	// THEN it is retrievable by id and by name
	got, err := m.GetRole(ctx, "r-1")
	if err != nil || got == nil {
		t.Fatalf("get role: %v, %v", got, err)
	}
	if got.Name != "Electrician" {
		t.Errorf("name = %q, want Electrician", got.Name)
	}
	byName, err := m.GetRoleByName(ctx, "Electrician")
	if err != nil || byName == nil || byName.ID != "r-1" {
		t.Fatalf("get role by name: %v, %v", byName, err)
	}

	// AND a miss returns nil without error
	missing, err := m.GetRole(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing role = %v, %v, want nil, nil", missing, err)
	}
}

func TestMemory_ListsAreSortedByID(t *testing.T) {
	// GIVEN roles inserted out of order
	m := store.NewMemory()
	ctx := context.Background()
	for _, id := range []string{"r-3", "r-1", "r-2"} {
		if err := m.SaveRole(ctx, engine.Role{ID: id, Name: id}); err != nil {
			t.Fatalf("save role: %v", err)
		}
	}

	// WHEN listing
	roles, err := m.ListRoles(ctx)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}

	// THEN the order is deterministic
	if len(roles) != 3 {
		t.Fatalf("len = %d, want 3", len(roles))
	}
	for i, want := range []string{"r-1", "r-2", "r-3"} {
		if roles[i].ID != want {
			t.Errorf("roles[%d].ID = %q, want %q", i, roles[i].ID, want)
		}
	}
}

func TestMemory_ProjectFilter(t *testing.T) {
	// GIVEN a folder with one child plus an unrelated completed project
	m := store.NewMemory()
	ctx := context.Background()
	save := func(p engine.Project) {
		t.Helper()
		if err := m.SaveProject(ctx, p); err != nil {
			t.Fatalf("save project: %v", err)
		}
	}
	save(engine.Project{ID: "folder-1", Name: "North Region", IsFolder: true, Status: engine.StatusActive})
	save(engine.Project{ID: "proj-1", Name: "Bridge Retrofit", Status: engine.StatusActive, ParentProjectID: "folder-1"})
	save(engine.Project{ID: "proj-2", Name: "Old Depot", Status: engine.StatusCompleted})

	// WHEN filtering by status
	active, err := m.ListProjects(ctx, engine.ProjectFilter{Statuses: []engine.ProjectStatus{engine.StatusActive}})
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active projects = %d, want 2", len(active))
	}

	// AND by parent
	parent := "folder-1"
	children, err := m.ListProjects(ctx, engine.ProjectFilter{ParentProjectID: &parent})
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 1 || children[0].ID != "proj-1" {
		t.Errorf("children = %v, want only proj-1", children)
	}

	// AND an empty filter returns everything
	all, err := m.ListProjects(ctx, engine.ProjectFilter{})
	if err != nil || len(all) != 3 {
		t.Errorf("all projects = %d, %v, want 3", len(all), err)
	}
}

func TestMemory_AssignmentOverlapQuery(t *testing.T) {
	// GIVEN one staff member with two assignments in different quarters
	m := store.NewMemory()
	ctx := context.Background()
	a1 := engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: mustDate(t, "2025-01-01"), EndDate: mustDate(t, "2025-03-31"),
	}
	a2 := engine.Assignment{
		ID: "a-2", StaffID: "staff-1", ProjectID: "proj-2",
		StartDate: mustDate(t, "2025-07-01"), EndDate: mustDate(t, "2025-09-30"),
	}
	for _, a := range []engine.Assignment{a1, a2} {
		if err := m.SaveAssignment(ctx, a); err != nil {
			t.Fatalf("save assignment: %v", err)
		}
	}

	// WHEN querying a window touching only the first assignment's last day
	got, err := m.ListAssignmentsOverlapping(ctx, "staff-1", mustDate(t, "2025-03-31"), mustDate(t, "2025-04-30"))
	if err != nil {
		t.Fatalf("overlap query: %v", err)
	}

	// THEN the boundary day counts as an overlap
	if len(got) != 1 || got[0].ID != "a-1" {
		t.Errorf("overlapping = %v, want only a-1", got)
	}

	// AND a gap between the two returns nothing
	gap, err := m.ListAssignmentsOverlapping(ctx, "staff-1", mustDate(t, "2025-04-01"), mustDate(t, "2025-06-30"))
	if err != nil || len(gap) != 0 {
		t.Errorf("gap query = %v, %v, want empty", gap, err)
	}

	// AND another staff id sees neither
	other, err := m.ListAssignmentsOverlapping(ctx, "staff-2", mustDate(t, "2025-01-01"), mustDate(t, "2025-12-31"))
	if err != nil || len(other) != 0 {
		t.Errorf("other staff = %v, %v, want empty", other, err)
	}
}

func TestMemory_MonthlyAllocationUpsert(t *testing.T) {
	// GIVEN an allocation for one month
	m := store.NewMemory()
	ctx := context.Background()
	jan := mustMonth(t, "2025-01")
	if err := m.SaveMonthlyAllocation(ctx, engine.MonthlyAllocation{ID: "ma-1", AssignmentID: "a-1", Month: jan, Percentage: 50}); err != nil {
		t.Fatalf("save allocation: %v", err)
	}

	// WHEN the same month is saved again with a different percentage
	if err := m.SaveMonthlyAllocation(ctx, engine.MonthlyAllocation{ID: "ma-2", AssignmentID: "a-1", Month: jan, Percentage: 75}); err != nil {
		t.Fatalf("resave allocation: %v", err)
	}

	// THEN the new value replaces the old row instead of duplicating it
	got, err := m.ListMonthlyAllocations(ctx, "a-1")
	if err != nil {
		t.Fatalf("list allocations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("allocations = %d, want 1", len(got))
	}
	if got[0].Percentage != 75 {
		t.Errorf("percentage = %v, want 75", got[0].Percentage)
	}
}

func TestMemory_DeleteStaffCascades(t *testing.T) {
	// GIVEN a staff member with an assignment carrying a monthly override
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveStaff(ctx, engine.Staff{ID: "staff-1", Name: "Maria", RoleID: "r-1"}); err != nil {
		t.Fatalf("save staff: %v", err)
	}
	if err := m.SaveAssignment(ctx, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: mustDate(t, "2025-01-01"), EndDate: mustDate(t, "2025-06-30"),
	}); err != nil {
		t.Fatalf("save assignment: %v", err)
	}
	if err := m.SaveMonthlyAllocation(ctx, engine.MonthlyAllocation{ID: "ma-1", AssignmentID: "a-1", Month: mustMonth(t, "2025-02"), Percentage: 60}); err != nil {
		t.Fatalf("save allocation: %v", err)
	}

	// WHEN the staff member is deleted
	if err := m.DeleteStaff(ctx, "staff-1"); err != nil {
		t.Fatalf("delete staff: %v", err)
	}

	// THEN the assignment goes with them
	a, err := m.GetAssignment(ctx, "a-1")
	if err != nil || a != nil {
		t.Errorf("assignment after delete = %v, %v, want nil, nil", a, err)
	}
}

func TestMemory_DeleteAssignmentRemovesMonthlyRows(t *testing.T) {
	// GIVEN an assignment with two monthly overrides
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveAssignment(ctx, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: mustDate(t, "2025-01-01"), EndDate: mustDate(t, "2025-06-30"),
	}); err != nil {
		t.Fatalf("save assignment: %v", err)
	}
	for i, month := range []string{"2025-01", "2025-02"} {
		if err := m.SaveMonthlyAllocation(ctx, engine.MonthlyAllocation{
			ID: "ma-" + month, AssignmentID: "a-1", Month: mustMonth(t, month), Percentage: float64(25 * (i + 1)),
		}); err != nil {
			t.Fatalf("save allocation: %v", err)
		}
	}

	// WHEN the assignment is deleted
	if err := m.DeleteAssignment(ctx, "a-1"); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}

	// THEN its monthly rows are gone too
	got, err := m.ListMonthlyAllocations(ctx, "a-1")
	if err != nil || len(got) != 0 {
		t.Errorf("allocations after delete = %v, %v, want empty", got, err)
	}
}

func TestMemory_DeleteExerciseCascades(t *testing.T) {
	// GIVEN an exercise with one planning project and one role row
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveExercise(ctx, engine.PlanningExercise{ID: "ex-1", Name: "Pipeline", Status: engine.ExerciseDraft}); err != nil {
		t.Fatalf("save exercise: %v", err)
	}
	if err := m.SavePlanningProject(ctx, engine.PlanningProject{
		ID: "pp-1", ExerciseID: "ex-1", Name: "Riverside", StartDate: mustDate(t, "2025-03-01"), DurationMonths: 4,
	}); err != nil {
		t.Fatalf("save planning project: %v", err)
	}
	if err := m.SavePlanningRole(ctx, engine.PlanningRole{
		ID: "pr-1", PlanningProjectID: "pp-1", RoleID: "r-1", Count: 2,
		AllocationPercentage: 100, HoursPerWeek: 40, OverlapMode: engine.OverlapEfficient,
	}); err != nil {
		t.Fatalf("save planning role: %v", err)
	}

	// WHEN the exercise is deleted
	if err := m.DeleteExercise(ctx, "ex-1"); err != nil {
		t.Fatalf("delete exercise: %v", err)
	}

	// THEN its projects and role rows are removed
	projects, err := m.ListPlanningProjects(ctx, "ex-1")
	if err != nil || len(projects) != 0 {
		t.Errorf("planning projects = %v, %v, want empty", projects, err)
	}
	roles, err := m.ListPlanningRoles(ctx, "pp-1")
	if err != nil || len(roles) != 0 {
		t.Errorf("planning roles = %v, %v, want empty", roles, err)
	}
}

func TestMemory_ResetClearsEverything(t *testing.T) {
	// GIVEN a populated store
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveRole(ctx, engine.Role{ID: "r-1", Name: "Carpenter"}); err != nil {
		t.Fatalf("save role: %v", err)
	}
	if err := m.SaveStaff(ctx, engine.Staff{ID: "staff-1", Name: "Priya", RoleID: "r-1"}); err != nil {
		t.Fatalf("save staff: %v", err)
	}

	// WHEN reset
	if err := m.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// THEN all collections are empty again
	roles, err := m.ListRoles(ctx)
	if err != nil || len(roles) != 0 {
		t.Errorf("roles after reset = %v, %v, want empty", roles, err)
	}
	people, err := m.ListStaff(ctx)
	if err != nil || len(people) != 0 {
		t.Errorf("staff after reset = %v, %v, want empty", people, err)
	}
}
