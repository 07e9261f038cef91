/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	construction staffing data. Each scenario creates roles, staff, projects,
	and assignments that demonstrate specific features.

AVAILABLE SCENARIOS:

	site-basics:       Roles, crew, one active site across all allocation types
	folder-rates:      Region folder with inherited rate cards and subprojects
	overbooked-crew:   Double-booked staff for conflict detection demos
	planning-exercise: Draft what-if exercise with two hypothetical sites

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create roles with default billable rates
 3. Create staff with skills and availability
 4. Create projects and rate overrides
 5. Create assignments, monthly curves, and ghost staff

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "site-basics"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Error helpers and handler context
  - factory/exercise.go: Exercise JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/factory"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "site-basics",
		Name:        "Site Basics",
		Description: "One active site with a crew across all four allocation types",
	},
	{
		ID:          "folder-rates",
		Name:        "Folder Rate Cards",
		Description: "A region folder whose rate card is inherited by its sites",
	},
	{
		ID:          "overbooked-crew",
		Name:        "Overbooked Crew",
		Description: "A site manager booked full-time on two overlapping sites",
	},
	{
		ID:          "planning-exercise",
		Name:        "Planning Exercise",
		Description: "A draft what-if exercise with two hypothetical sites",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the demo scenario catalog.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario reports which scenario was last loaded, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// ResetDatabase wipes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "site-basics":
		err = h.loadSiteBasics(ctx)
	case "folder-rates":
		err = h.loadFolderRates(ctx)
	case "overbooked-crew":
		err = h.loadOverbookedCrew(ctx)
	case "planning-exercise":
		err = h.loadPlanningExercise(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

// seedRoles creates the standard construction role catalog and returns role
// IDs keyed by name.
func (h *Handler) seedRoles(ctx context.Context) (map[string]string, error) {
	type roleSeed struct {
		name     string
		cost     float64
		billable float64
	}
	seeds := []roleSeed{
		{"Site Manager", 65, 120},
		{"Electrician", 45, 85},
		{"Carpenter", 38, 70},
		{"Plumber", 42, 80},
		{"Laborer", 25, 0}, // no default billable rate
	}

	ids := make(map[string]string, len(seeds))
	for _, s := range seeds {
		role := engine.Role{
			ID:                 uuid.NewString(),
			Name:               s.name,
			InternalHourlyCost: decimal.NewFromFloat(s.cost),
		}
		if s.billable > 0 {
			b := decimal.NewFromFloat(s.billable)
			role.DefaultBillableRate = &b
		}
		if err := h.Store.SaveRole(ctx, role); err != nil {
			return nil, err
		}
		ids[s.name] = role.ID
	}
	return ids, nil
}

func (h *Handler) seedStaff(ctx context.Context, name, roleID string, cost float64, skills []string) (string, error) {
	staff := engine.Staff{
		ID:                 uuid.NewString(),
		Name:               name,
		RoleID:             roleID,
		InternalHourlyCost: decimal.NewFromFloat(cost),
		Skills:             skills,
	}
	return staff.ID, h.Store.SaveStaff(ctx, staff)
}

func (h *Handler) seedProject(ctx context.Context, p engine.Project) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = engine.StatusActive
	}
	return p.ID, h.Store.SaveProject(ctx, p)
}

func (h *Handler) seedAssignment(ctx context.Context, a engine.Assignment) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.HoursPerWeek == 0 {
		a.HoursPerWeek = engine.StandardWeeklyHours
	}
	return a.ID, h.Store.SaveAssignment(ctx, a)
}

func datePtr(d engine.Date) *engine.Date { return &d }

// =============================================================================
// SCENARIO: SITE BASICS
// =============================================================================

// loadSiteBasics seeds one active site with assignments exercising all four
// allocation types, plus an unfilled electrician position.
func (h *Handler) loadSiteBasics(ctx context.Context) error {
	roles, err := h.seedRoles(ctx)
	if err != nil {
		return err
	}

	maria, err := h.seedStaff(ctx, "Maria Santos", roles["Site Manager"], 68, []string{"scheduling", "safety certification"})
	if err != nil {
		return err
	}
	james, err := h.seedStaff(ctx, "James Okafor", roles["Electrician"], 45, []string{"high voltage", "solar"})
	if err != nil {
		return err
	}
	lena, err := h.seedStaff(ctx, "Lena Fischer", roles["Carpenter"], 38, []string{"framing", "finish work"})
	if err != nil {
		return err
	}
	tomas, err := h.seedStaff(ctx, "Tomas Ruiz", roles["Plumber"], 42, nil)
	if err != nil {
		return err
	}

	start := engine.Today().MondayOf()
	end := start.AddMonths(6).AddDays(-1)
	budget := decimal.NewFromInt(850000)
	site, err := h.seedProject(ctx, engine.Project{
		Name:      "Harbor Tower",
		StartDate: datePtr(start),
		EndDate:   datePtr(end),
		Budget:    &budget,
		Location:  "Dock District",
	})
	if err != nil {
		return err
	}

	// Full-time site manager for the whole build.
	if _, err := h.seedAssignment(ctx, engine.Assignment{
		StaffID:        maria,
		ProjectID:      site,
		StartDate:      start,
		EndDate:        end,
		RoleOnProject:  "Site Manager",
		AllocationType: engine.AllocationFull,
	}); err != nil {
		return err
	}

	// Electrician at a fixed 60% for the middle four months.
	if _, err := h.seedAssignment(ctx, engine.Assignment{
		StaffID:              james,
		ProjectID:            site,
		StartDate:            start.AddMonths(1),
		EndDate:              start.AddMonths(5).AddDays(-1),
		RoleOnProject:        "Electrician",
		AllocationType:       engine.AllocationPercentageTotal,
		AllocationPercentage: 60,
	}); err != nil {
		return err
	}

	// Carpenter split evenly across however many sites she is on.
	if _, err := h.seedAssignment(ctx, engine.Assignment{
		StaffID:        lena,
		ProjectID:      site,
		StartDate:      start,
		EndDate:        end,
		RoleOnProject:  "Carpenter",
		AllocationType: engine.AllocationSplitByProjects,
	}); err != nil {
		return err
	}

	// Plumber ramping up month by month.
	plumbing, err := h.seedAssignment(ctx, engine.Assignment{
		StaffID:        tomas,
		ProjectID:      site,
		StartDate:      start.AddMonths(2),
		EndDate:        end,
		RoleOnProject:  "Plumber",
		AllocationType: engine.AllocationPercentageMonthly,
	})
	if err != nil {
		return err
	}
	for i, pct := range []float64{25, 50, 75} {
		if err := h.Store.SaveMonthlyAllocation(ctx, engine.MonthlyAllocation{
			ID:           uuid.NewString(),
			AssignmentID: plumbing,
			Month:        engine.MonthOf(start.AddMonths(2 + i)),
			Percentage:   pct,
		}); err != nil {
			return err
		}
	}

	// One electrician position still unfilled.
	return h.Store.SaveGhostStaff(ctx, engine.GhostStaff{
		ID:                   uuid.NewString(),
		ProjectID:            site,
		RoleID:               roles["Electrician"],
		Name:                 "Electrician #2",
		StartDate:            start.AddMonths(2),
		EndDate:              end,
		HoursPerWeek:         engine.StandardWeeklyHours,
		AllocationPercentage: 100,
	})
}

// =============================================================================
// SCENARIO: FOLDER RATE CARDS
// =============================================================================

// loadFolderRates seeds a region folder carrying the rate card, with two
// child sites. One site overrides a rate; the other inherits everything.
func (h *Handler) loadFolderRates(ctx context.Context) error {
	roles, err := h.seedRoles(ctx)
	if err != nil {
		return err
	}

	region, err := h.seedProject(ctx, engine.Project{
		Name:     "North Region",
		IsFolder: true,
		Status:   engine.StatusActive,
	})
	if err != nil {
		return err
	}

	// Region-wide rate card.
	for name, rate := range map[string]float64{
		"Site Manager": 130,
		"Electrician":  95,
		"Carpenter":    75,
	} {
		if err := h.Store.SaveRoleRate(ctx, engine.ProjectRoleRate{
			ID:           uuid.NewString(),
			ProjectID:    region,
			RoleID:       roles[name],
			BillableRate: decimal.NewFromFloat(rate),
		}); err != nil {
			return err
		}
	}

	start := engine.Today().MondayOf()
	end := start.AddMonths(4).AddDays(-1)

	// Inherits the full region card.
	if _, err := h.seedProject(ctx, engine.Project{
		Name:            "Bridge Retrofit",
		StartDate:       datePtr(start),
		EndDate:         datePtr(end),
		ParentProjectID: region,
		Location:        "Northgate",
	}); err != nil {
		return err
	}

	// Overrides the electrician rate; everything else inherits.
	depot, err := h.seedProject(ctx, engine.Project{
		Name:            "Transit Depot",
		StartDate:       datePtr(start.AddMonths(1)),
		EndDate:         datePtr(end.AddMonths(2)),
		ParentProjectID: region,
		Location:        "Milltown",
	})
	if err != nil {
		return err
	}
	return h.Store.SaveRoleRate(ctx, engine.ProjectRoleRate{
		ID:           uuid.NewString(),
		ProjectID:    depot,
		RoleID:       roles["Electrician"],
		BillableRate: decimal.NewFromFloat(110),
	})
}

// =============================================================================
// SCENARIO: OVERBOOKED CREW
// =============================================================================

// loadOverbookedCrew books one site manager full-time on two overlapping
// sites, which the conflict endpoints report at roughly 200%.
func (h *Handler) loadOverbookedCrew(ctx context.Context) error {
	roles, err := h.seedRoles(ctx)
	if err != nil {
		return err
	}

	maria, err := h.seedStaff(ctx, "Maria Santos", roles["Site Manager"], 68, []string{"scheduling"})
	if err != nil {
		return err
	}
	priya, err := h.seedStaff(ctx, "Priya Nair", roles["Site Manager"], 62, []string{"permits"})
	if err != nil {
		return err
	}

	start := engine.Today().MondayOf()
	end := start.AddMonths(3).AddDays(-1)

	for _, name := range []string{"Harbor Tower", "Quarry Access Road"} {
		site, err := h.seedProject(ctx, engine.Project{
			Name:      name,
			StartDate: datePtr(start),
			EndDate:   datePtr(end),
		})
		if err != nil {
			return err
		}
		if _, err := h.seedAssignment(ctx, engine.Assignment{
			StaffID:             maria,
			ProjectID:           site,
			StartDate:           start,
			EndDate:             end,
			RoleOnProject:       "Site Manager",
			AllocationType:      engine.AllocationFull,
			AllowOverAllocation: true,
		}); err != nil {
			return err
		}
	}

	// Priya is lightly loaded so the suggestion endpoint has a candidate.
	site, err := h.seedProject(ctx, engine.Project{
		Name:      "Warehouse Fit-Out",
		StartDate: datePtr(start),
		EndDate:   datePtr(end),
	})
	if err != nil {
		return err
	}
	_, err = h.seedAssignment(ctx, engine.Assignment{
		StaffID:              priya,
		ProjectID:            site,
		StartDate:            start,
		EndDate:              end,
		RoleOnProject:        "Site Manager",
		AllocationType:       engine.AllocationPercentageTotal,
		AllocationPercentage: 30,
	})
	return err
}

// =============================================================================
// SCENARIO: PLANNING EXERCISE
// =============================================================================

// loadPlanningExercise seeds roles plus a draft exercise with two
// hypothetical sites, ready for coverage and apply demos.
func (h *Handler) loadPlanningExercise(ctx context.Context) error {
	roles, err := h.seedRoles(ctx)
	if err != nil {
		return err
	}

	start := engine.Today().MondayOf().AddMonths(2)
	endOffset := 6
	template := factory.ExerciseJSON{
		Name:        "Next Year Pipeline",
		Description: "Candidate sites under bid review",
		Projects: []factory.ProjectJSON{
			{
				Name:           "Riverside Apartments",
				StartDate:      start.String(),
				DurationMonths: 8,
				Location:       "Riverside",
				Roles: []factory.RoleJSON{
					{Role: "Site Manager", Count: 1},
					{Role: "Electrician", Count: 2, StartMonthOffset: 2, EndMonthOffset: &endOffset},
					{Role: "Carpenter", Count: 3, AllocationPercentage: 75, OverlapMode: "efficient"},
				},
			},
			{
				Name:           "School Annex",
				StartDate:      start.AddMonths(3).String(),
				DurationMonths: 5,
				Location:       "Hillcrest",
				Roles: []factory.RoleJSON{
					{Role: "Site Manager", Count: 1, AllocationPercentage: 50},
					{Role: "Carpenter", Count: 2, OverlapMode: "conservative"},
				},
			},
		},
	}

	roleIDByName := make(map[string]string, len(roles))
	for name, id := range roles {
		roleIDByName[name] = id
	}

	ex, projects, planningRoles, err := h.ExerciseFactory.FromJSON(template, roleIDByName)
	if err != nil {
		return err
	}
	if err := h.Store.SaveExercise(ctx, *ex); err != nil {
		return err
	}
	for _, p := range projects {
		if err := h.Store.SavePlanningProject(ctx, p); err != nil {
			return err
		}
	}
	for _, role := range planningRoles {
		if err := h.Store.SavePlanningRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}
