package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// PLANNING EXERCISE TEST FIXTURE
// =============================================================================

// seedExercise builds a two-project draft exercise:
//
//	Riverside (Mar-Jun 2025, 4 months): 2 carpenters at 50% efficient, and
//	1 site manager full, conservative
//	Annex (May-Jun 2025, 2 months): 1 carpenter full
//
// Peak carpenter months are May and June: count 3, FTE 2.0.
func seedExercise(t *testing.T, st engine.Store) {
	t.Helper()
	ctx := context.Background()
	seedRole(t, st, "role-cp", "Carpenter", 38, ratePtr(70))
	seedRole(t, st, "role-sm", "Site Manager", 65, nil)

	if err := st.SaveExercise(ctx, engine.PlanningExercise{
		ID: "ex-1", Name: "Next Year Pipeline", Status: engine.ExerciseDraft,
	}); err != nil {
		t.Fatalf("seed exercise: %v", err)
	}
	if err := st.SavePlanningProject(ctx, engine.PlanningProject{
		ID: "pp-1", ExerciseID: "ex-1", Name: "Riverside Apartments",
		StartDate: date(t, "2025-03-01"), DurationMonths: 4, Location: "Riverside",
	}); err != nil {
		t.Fatalf("seed planning project: %v", err)
	}
	if err := st.SavePlanningProject(ctx, engine.PlanningProject{
		ID: "pp-2", ExerciseID: "ex-1", Name: "School Annex",
		StartDate: date(t, "2025-05-01"), DurationMonths: 2,
	}); err != nil {
		t.Fatalf("seed planning project: %v", err)
	}

	rows := []engine.PlanningRole{
		{ID: "pr-1", PlanningProjectID: "pp-1", RoleID: "role-cp", Count: 2,
			AllocationPercentage: 50, OverlapMode: engine.OverlapEfficient},
		{ID: "pr-2", PlanningProjectID: "pp-1", RoleID: "role-sm", Count: 1,
			OverlapMode: engine.OverlapConservative},
		{ID: "pr-3", PlanningProjectID: "pp-2", RoleID: "role-cp", Count: 1,
			OverlapMode: engine.OverlapEfficient},
	}
	for _, r := range rows {
		if err := st.SavePlanningRole(ctx, r); err != nil {
			t.Fatalf("seed planning role: %v", err)
		}
	}
}

// =============================================================================
// COVERAGE GRID TESTS
// =============================================================================

func TestCalculatePlanningCoverage_Grid(t *testing.T) {
	// GIVEN: Two overlapping hypothetical projects needing carpenters
	// WHEN: Building the coverage grid
	// THEN: Overlap months sum counts and allocation-weighted FTE

	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)

	coverage, err := e.CalculatePlanningCoverage(ctx, "ex-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coverage.ExerciseName != "Next Year Pipeline" {
		t.Errorf("unexpected exercise name %q", coverage.ExerciseName)
	}
	if len(coverage.Months) != 4 || coverage.Months[0] != "2025-03" || coverage.Months[3] != "2025-06" {
		t.Fatalf("expected months 2025-03..2025-06, got %v", coverage.Months)
	}
	if len(coverage.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(coverage.Roles))
	}

	// Sorted by role name: Carpenter before Site Manager.
	cp := coverage.Roles[0]
	if cp.RoleName != "Carpenter" {
		t.Fatalf("expected Carpenter first, got %s", cp.RoleName)
	}

	march := cp.ByMonth["2025-03"]
	if march.RequiredCount != 2 || !approx(march.FTE, 1.0) {
		t.Errorf("March: expected 2 heads / 1.0 FTE, got %d / %f", march.RequiredCount, march.FTE)
	}
	may := cp.ByMonth["2025-05"]
	if may.RequiredCount != 3 || !approx(may.FTE, 2.0) {
		t.Errorf("May: expected 3 heads / 2.0 FTE, got %d / %f", may.RequiredCount, may.FTE)
	}
}

func TestCalculatePlanningCoverage_EmptyExercise(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	st.SaveExercise(ctx, engine.PlanningExercise{ID: "ex-1", Name: "Empty", Status: engine.ExerciseDraft})

	coverage, err := e.CalculatePlanningCoverage(ctx, "ex-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coverage.Months) != 0 || len(coverage.Roles) != 0 {
		t.Errorf("empty exercise should produce an empty grid: %+v", coverage)
	}
}

func TestCalculatePlanningCoverage_UnknownExercise_NotFound(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()
	if _, err := e.CalculatePlanningCoverage(ctx, "nope"); !engine.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

// =============================================================================
// MINIMUM STAFF TESTS
// =============================================================================

func TestCalculateMinimumStaffPerRole_Modes(t *testing.T) {
	// GIVEN: An efficient carpenter need peaking at 3 heads / 2.0 FTE
	//        and a conservative site manager need of 1
	// WHEN: Reducing the grid
	// THEN: Efficient takes ceil(peak FTE)=2, conservative takes peak count=1

	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)

	needs, err := e.CalculateMinimumStaffPerRole(ctx, "ex-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byRole := map[string]engine.RoleStaffingNeed{}
	for _, n := range needs {
		byRole[n.RoleName] = n
	}

	cp := byRole["Carpenter"]
	if cp.Mode != engine.OverlapEfficient {
		t.Errorf("carpenter should be efficient, got %s", cp.Mode)
	}
	if cp.PeakCount != 3 || !approx(cp.PeakFTE, 2.0) {
		t.Errorf("carpenter peak: expected 3 / 2.0, got %d / %f", cp.PeakCount, cp.PeakFTE)
	}
	if cp.PeakMonth != "2025-05" {
		t.Errorf("carpenter peak month should be 2025-05, got %s", cp.PeakMonth)
	}
	if cp.MinimumStaff != 2 {
		t.Errorf("efficient minimum should be ceil(2.0)=2, got %d", cp.MinimumStaff)
	}
	// No real carpenters exist yet: the whole minimum is a hiring gap.
	if cp.AvailableStaff != 0 || cp.GapToHire != 2 {
		t.Errorf("expected 0 available / gap 2, got %d / %d", cp.AvailableStaff, cp.GapToHire)
	}

	sm := byRole["Site Manager"]
	if sm.Mode != engine.OverlapConservative {
		t.Errorf("site manager should be conservative, got %s", sm.Mode)
	}
	if sm.MinimumStaff != 1 {
		t.Errorf("conservative minimum should be the peak count 1, got %d", sm.MinimumStaff)
	}
}

func TestCalculateMinimumStaffPerRole_AvailableStaffReduceGap(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)
	// Two idle carpenters cover the efficient minimum of 2.
	seedStaff(t, st, "staff-1", "Lena Fischer", "role-cp", 38)
	seedStaff(t, st, "staff-2", "Noor Haddad", "role-cp", 36)

	needs, err := e.CalculateMinimumStaffPerRole(ctx, "ex-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range needs {
		if n.RoleName != "Carpenter" {
			continue
		}
		if n.AvailableStaff != 2 {
			t.Errorf("expected 2 available carpenters, got %d", n.AvailableStaff)
		}
		if n.GapToHire != 0 {
			t.Errorf("expected no hiring gap, got %d", n.GapToHire)
		}
	}
}

// =============================================================================
// APPLY TESTS
// =============================================================================

func TestApplyPlanningExercise_Materializes(t *testing.T) {
	// GIVEN: A draft exercise with two projects
	// WHEN: Applying it for real
	// THEN: Planning-status projects, role rates from defaults, and one named
	//       ghost per head land in the store, and the exercise flips to applied

	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)

	result, err := e.ApplyPlanningExercise(ctx, "ex-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DryRun {
		t.Error("dry_run should be false")
	}
	if len(result.CreatedProjects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(result.CreatedProjects))
	}
	// The carpenter role has a default rate per project; the site manager has
	// none, so 2 rates total.
	if len(result.CreatedRates) != 2 {
		t.Errorf("expected 2 rate overrides, got %d", len(result.CreatedRates))
	}
	// Heads: 2 + 1 carpenters plus 1 site manager.
	if len(result.CreatedGhosts) != 4 {
		t.Errorf("expected 4 ghosts, got %d", len(result.CreatedGhosts))
	}

	for _, p := range result.CreatedProjects {
		if p.Status != engine.StatusPlanning {
			t.Errorf("materialized project should be planning, got %s", p.Status)
		}
		stored, _ := st.GetProject(ctx, p.ID)
		if stored == nil {
			t.Errorf("project %s not persisted", p.Name)
		}
		if p.Name == "Riverside Apartments" {
			if p.StartDate.String() != "2025-03-01" || p.EndDate.String() != "2025-06-30" {
				t.Errorf("4-month project should span 2025-03-01..2025-06-30, got %s..%s",
					p.StartDate, p.EndDate)
			}
		}
	}

	names := map[string]bool{}
	for _, g := range result.CreatedGhosts {
		names[g.Name] = true
		if stored, _ := st.GetGhostStaff(ctx, g.ID); stored == nil {
			t.Errorf("ghost %s not persisted", g.Name)
		}
	}
	if !names["Carpenter #1"] || !names["Carpenter #2"] || !names["Site Manager #1"] {
		t.Errorf("ghosts should be sequentially named per role, got %v", names)
	}

	ex, _ := st.GetExercise(ctx, "ex-1")
	if ex.Status != engine.ExerciseApplied {
		t.Errorf("exercise should be applied, got %s", ex.Status)
	}
}

func TestApplyPlanningExercise_Twice_Rejected(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)

	if _, err := e.ApplyPlanningExercise(ctx, "ex-1", false); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	_, err := e.ApplyPlanningExercise(ctx, "ex-1", false)
	if !errors.Is(err, engine.ErrExerciseAlreadyApplied) {
		t.Fatalf("expected ErrExerciseAlreadyApplied, got %v", err)
	}
}

func TestApplyPlanningExercise_DryRun_NoWrites(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine()
	seedExercise(t, st)

	result, err := e.ApplyPlanningExercise(ctx, "ex-1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DryRun {
		t.Error("dry_run should be true")
	}
	if len(result.CreatedProjects) != 2 || len(result.CreatedGhosts) != 4 {
		t.Errorf("dry run should still report the full plan: %d projects, %d ghosts",
			len(result.CreatedProjects), len(result.CreatedGhosts))
	}

	// Nothing persisted, exercise still draft.
	projects, _ := st.ListProjects(ctx, engine.ProjectFilter{})
	if len(projects) != 0 {
		t.Errorf("dry run must not create projects, found %d", len(projects))
	}
	ex, _ := st.GetExercise(ctx, "ex-1")
	if ex.Status != engine.ExerciseDraft {
		t.Errorf("dry run must not flip the status, got %s", ex.Status)
	}

	// A dry run does not consume the exercise.
	if _, err := e.ApplyPlanningExercise(ctx, "ex-1", false); err != nil {
		t.Errorf("real apply after dry run should work: %v", err)
	}
}
