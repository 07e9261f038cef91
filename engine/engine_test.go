package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestEngine() (*engine.Engine, engine.Store) {
	st := store.NewMemory()
	return engine.New(st), st
}

func date(t *testing.T, s string) engine.Date {
	t.Helper()
	d, err := engine.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func datePtr(d engine.Date) *engine.Date { return &d }

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func seedRole(t *testing.T, st engine.Store, id, name string, cost float64, billable *float64) engine.Role {
	t.Helper()
	role := engine.Role{ID: id, Name: name, InternalHourlyCost: money(cost)}
	if billable != nil {
		b := money(*billable)
		role.DefaultBillableRate = &b
	}
	if err := st.SaveRole(context.Background(), role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return role
}

func seedStaff(t *testing.T, st engine.Store, id, name, roleID string, cost float64) engine.Staff {
	t.Helper()
	staff := engine.Staff{ID: id, Name: name, RoleID: roleID, InternalHourlyCost: money(cost)}
	if err := st.SaveStaff(context.Background(), staff); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	return staff
}

func seedProject(t *testing.T, st engine.Store, id, name, start, end string) engine.Project {
	t.Helper()
	p := engine.Project{ID: id, Name: name, Status: engine.StatusActive}
	if start != "" {
		p.StartDate = datePtr(date(t, start))
	}
	if end != "" {
		p.EndDate = datePtr(date(t, end))
	}
	if err := st.SaveProject(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func seedAssignment(t *testing.T, st engine.Store, a engine.Assignment) engine.Assignment {
	t.Helper()
	if a.HoursPerWeek == 0 {
		a.HoursPerWeek = engine.StandardWeeklyHours
	}
	if a.AllocationType == "" {
		a.AllocationType = engine.AllocationFull
	}
	if err := st.SaveAssignment(context.Background(), a); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

func ratePtr(v float64) *float64 { return &v }

func approx(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}

// =============================================================================
// LIFECYCLE GUARD TESTS
// =============================================================================

func TestDeleteRole_InUse_Rejected(t *testing.T) {
	// GIVEN: A role held by a staff member
	// WHEN: Deleting the role
	// THEN: The delete is rejected and the role survives

	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Electrician", 45, ratePtr(85))
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 45)

	err := e.DeleteRole(ctx, "role-1")
	if !errors.Is(err, engine.ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}

	role, err := st.GetRole(ctx, "role-1")
	if err != nil || role == nil {
		t.Fatalf("role should still exist, got role=%v err=%v", role, err)
	}
}

func TestDeleteRole_Unused_Succeeds(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Electrician", 45, nil)

	if err := e.DeleteRole(ctx, "role-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	role, _ := st.GetRole(ctx, "role-1")
	if role != nil {
		t.Fatal("role should be gone")
	}
}

func TestDeleteStaff_ActiveAssignment_Rejected(t *testing.T) {
	// GIVEN: A staff member with an assignment ending in the future
	// WHEN: Deleting the staff member
	// THEN: The delete is rejected

	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Carpenter", 38, nil)
	seedStaff(t, st, "staff-1", "Lena Fischer", "role-1", 38)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")

	future := engine.Today().AddMonths(6)
	seedAssignment(t, st, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: engine.Today().AddMonths(-1), EndDate: future,
	})

	err := e.DeleteStaff(ctx, "staff-1")
	if !errors.Is(err, engine.ErrStaffHasActiveAssignments) {
		t.Fatalf("expected ErrStaffHasActiveAssignments, got %v", err)
	}
}

func TestDeleteStaff_OnlyPastAssignments_Succeeds(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Carpenter", 38, nil)
	seedStaff(t, st, "staff-1", "Lena Fischer", "role-1", 38)
	seedProject(t, st, "proj-1", "Harbor Tower", "2020-01-01", "2020-06-30")
	seedAssignment(t, st, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: date(t, "2020-01-01"), EndDate: date(t, "2020-06-30"),
	})

	if err := e.DeleteStaff(ctx, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAssignment_EndBeforeStart_Rejected(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Plumber", 42, nil)
	seedStaff(t, st, "staff-1", "Tomas Ruiz", "role-1", 42)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")

	err := e.ValidateAssignment(ctx, engine.Assignment{
		ID: "a-1", StaffID: "staff-1", ProjectID: "proj-1",
		StartDate: date(t, "2025-03-01"), EndDate: date(t, "2025-02-01"),
		HoursPerWeek: 40, AllocationType: engine.AllocationFull,
	})
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateAssignment_UnknownStaff_NotFound(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")

	err := e.ValidateAssignment(ctx, engine.Assignment{
		ID: "a-1", StaffID: "nope", ProjectID: "proj-1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-02-01"),
		HoursPerWeek: 40, AllocationType: engine.AllocationFull,
	})
	if !engine.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestValidateProjectWrite_SelfParent_Rejected(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")

	p, _ := st.GetProject(ctx, "proj-1")
	p.ParentProjectID = "proj-1"
	if err := e.ValidateProjectWrite(ctx, *p); !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// =============================================================================
// GHOST STAFF REPLACEMENT TESTS
// =============================================================================

func TestReplaceGhostStaff_CreatesAssignment(t *testing.T) {
	// GIVEN: An unfilled electrician placeholder on a project
	// WHEN: Replacing it with a real staff member
	// THEN: A percentage_total assignment covers the ghost's window and the
	//       ghost records who filled it

	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Electrician", 45, ratePtr(85))
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 45)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")

	ghost := engine.GhostStaff{
		ID: "ghost-1", ProjectID: "proj-1", RoleID: "role-1",
		Name:      "Electrician #2",
		StartDate: date(t, "2025-02-01"), EndDate: date(t, "2025-05-31"),
		HoursPerWeek: 40, AllocationPercentage: 75,
	}
	if err := st.SaveGhostStaff(ctx, ghost); err != nil {
		t.Fatalf("seed ghost: %v", err)
	}

	a, err := e.ReplaceGhostStaff(ctx, "ghost-1", "staff-1", "a-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.StaffID != "staff-1" || a.ProjectID != "proj-1" {
		t.Errorf("assignment wired wrong: %+v", a)
	}
	if a.AllocationType != engine.AllocationPercentageTotal || a.AllocationPercentage != 75 {
		t.Errorf("expected percentage_total at 75, got %s %v", a.AllocationType, a.AllocationPercentage)
	}
	if !a.StartDate.Equal(ghost.StartDate) || !a.EndDate.Equal(ghost.EndDate) {
		t.Errorf("assignment window should match ghost window, got %s..%s", a.StartDate, a.EndDate)
	}

	updated, _ := st.GetGhostStaff(ctx, "ghost-1")
	if updated == nil || !updated.Replaced() {
		t.Fatal("ghost should be marked replaced")
	}
}

func TestReplaceGhostStaff_Twice_Rejected(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedRole(t, st, "role-1", "Electrician", 45, nil)
	seedStaff(t, st, "staff-1", "James Okafor", "role-1", 45)
	seedStaff(t, st, "staff-2", "Priya Nair", "role-1", 48)
	seedProject(t, st, "proj-1", "Harbor Tower", "2025-01-01", "2025-06-30")
	st.SaveGhostStaff(ctx, engine.GhostStaff{
		ID: "ghost-1", ProjectID: "proj-1", RoleID: "role-1",
		StartDate: date(t, "2025-01-01"), EndDate: date(t, "2025-06-30"),
		HoursPerWeek: 40, AllocationPercentage: 100,
	})

	if _, err := e.ReplaceGhostStaff(ctx, "ghost-1", "staff-1", "a-1"); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	_, err := e.ReplaceGhostStaff(ctx, "ghost-1", "staff-2", "a-2")
	if !errors.Is(err, engine.ErrGhostAlreadyReplaced) {
		t.Fatalf("expected ErrGhostAlreadyReplaced, got %v", err)
	}
}
