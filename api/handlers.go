/*
handlers.go - HTTP API handlers for the staffing engine

PURPOSE:
  Exposes the staffing and forecasting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Roles:
    GET    /api/roles                   List all roles
    POST   /api/roles                   Create/update role
    GET    /api/roles/{id}              Get role
    DELETE /api/roles/{id}              Delete role (blocked while staff hold it)

  Staff:
    GET    /api/staff                   List all staff
    POST   /api/staff                   Create/update staff member
    GET    /api/staff/{id}              Get staff member
    DELETE /api/staff/{id}              Delete (blocked while assignments active)
    GET    /api/staff/{id}/timeline     Monthly allocation timeline
    GET    /api/staff/{id}/conflicts    Over-allocation report
    GET    /api/staff/{id}/capacity     Utilization over a window

  Projects:
    GET    /api/projects                List (filter by status, parent)
    POST   /api/projects                Create/update project or folder
    GET    /api/projects/{id}           Get project
    DELETE /api/projects/{id}           Delete project
    GET    /api/projects/{id}/forecast  Weekly staffing forecast
    GET    /api/projects/{id}/cost      Cost summary with budget variance
    GET    /api/projects/{id}/gaps      Zero-coverage weeks
    GET    /api/projects/{id}/report    Monthly planning report (staff + ghosts)
    POST   /api/projects/{id}/simulate  What-if scenario (never persists)
    GET    /api/projects/{id}/rates     List rate overrides
    POST   /api/projects/{id}/rates     Upsert rate override

  Assignments:
    POST   /api/assignments             Create/update assignment
    GET    /api/assignments/{id}        Get assignment
    DELETE /api/assignments/{id}        Delete assignment
    POST   /api/assignments/validate    Advisory over-allocation check
    GET    /api/assignments/{id}/monthly-allocations
    POST   /api/assignments/{id}/monthly-allocations

  Ghost staff:
    POST   /api/ghost-staff             Create/update placeholder
    POST   /api/ghost-staff/{id}/replace  Replace with a real staff member

  Forecast / conflicts:
    GET    /api/forecast/organization   Org-wide weekly forecast + utilization
    GET    /api/overallocations         Org-wide conflict roster

  Suggestions:
    POST   /api/suggestions             Ranked candidates for an open role
    POST   /api/suggestions/new-hires   Hiring gap and recommendations

  Planning:
    GET    /api/planning/exercises              List exercises
    POST   /api/planning/exercises              Create exercise from template
    GET    /api/planning/exercises/{id}/coverage
    GET    /api/planning/exercises/{id}/minimum-staff
    POST   /api/planning/exercises/{id}/apply   Materialize (?dry_run=true)

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Wipe the database

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (role in use, ghost already replaced, exercise applied)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           engine.Store
	Engine          *engine.Engine
	ExerciseFactory *factory.ExerciseFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store) *Handler {
	return &Handler{
		Store:           store,
		Engine:          engine.New(store),
		ExerciseFactory: factory.NewExerciseFactory(),
	}
}

// =============================================================================
// ROLE HANDLERS
// =============================================================================

// ListRoles returns all roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list roles", err)
		return
	}

	dtos := make([]RoleDTO, len(roles))
	for i, role := range roles {
		dtos[i] = toRoleDTO(role)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRole returns a single role.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Store.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get role", err)
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "Role not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRoleDTO(*role))
}

// SaveRole creates or updates a role.
func (h *Handler) SaveRole(w http.ResponseWriter, r *http.Request) {
	var req SaveRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Role name is required", nil)
		return
	}

	role := engine.Role{
		ID:                 req.ID,
		Name:               req.Name,
		InternalHourlyCost: decimal.NewFromFloat(req.InternalHourlyCost),
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if req.DefaultBillableRate != nil {
		d := decimal.NewFromFloat(*req.DefaultBillableRate)
		role.DefaultBillableRate = &d
	}

	if err := h.Store.SaveRole(r.Context(), role); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save role", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleDTO(role))
}

// DeleteRole removes a role unless staff still hold it.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// ListStaff returns all staff members.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list staff", err)
		return
	}

	dtos := make([]StaffDTO, len(staff))
	for i, s := range staff {
		dtos[i] = toStaffDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaff returns a single staff member.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.GetStaff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get staff", err)
		return
	}
	if staff == nil {
		writeError(w, http.StatusNotFound, "Staff not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(*staff))
}

// SaveStaff creates or updates a staff member.
func (h *Handler) SaveStaff(w http.ResponseWriter, r *http.Request) {
	var req SaveStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.RoleID == "" {
		writeError(w, http.StatusBadRequest, "Name and role_id are required", nil)
		return
	}

	role, err := h.Store.GetRole(r.Context(), req.RoleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up role", err)
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "Role not found", nil)
		return
	}

	staff := engine.Staff{
		ID:                 req.ID,
		Name:               req.Name,
		RoleID:             req.RoleID,
		InternalHourlyCost: decimal.NewFromFloat(req.InternalHourlyCost),
		Skills:             req.Skills,
	}
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if req.AvailabilityStart != "" {
		d, err := engine.ParseDate(req.AvailabilityStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid availability_start", err)
			return
		}
		staff.AvailabilityStart = &d
	}
	if req.AvailabilityEnd != "" {
		d, err := engine.ParseDate(req.AvailabilityEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid availability_end", err)
			return
		}
		staff.AvailabilityEnd = &d
	}

	if err := h.Store.SaveStaff(r.Context(), staff); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(staff))
}

// DeleteStaff removes a staff member (blocked while assignments are active).
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteStaff(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete staff", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStaffTimeline returns the staff member's month-by-month allocation.
// GET /api/staff/{id}/timeline?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetStaffTimeline(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	timeline, err := h.Engine.StaffAllocationTimeline(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

// GetStaffConflicts returns the staff member's over-allocation report.
// GET /api/staff/{id}/conflicts?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetStaffConflicts(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	report, err := h.Engine.DetectOverAllocations(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "Failed to detect over-allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetStaffCapacity returns utilization over a window.
// GET /api/staff/{id}/capacity?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetStaffCapacity(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	capacity, err := h.Engine.StaffCapacity(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, capacity)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns projects, optionally filtered.
// GET /api/projects?status=active&status=planning&parent=<id>
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	var filter engine.ProjectFilter
	for _, s := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, engine.ProjectStatus(s))
	}
	if r.URL.Query().Has("parent") {
		parent := r.URL.Query().Get("parent")
		filter.ParentProjectID = &parent
	}

	projects, err := h.Store.ListProjects(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get project", err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// SaveProject creates or updates a project or folder.
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	project := engine.Project{
		ID:              req.ID,
		Name:            req.Name,
		Status:          engine.ProjectStatus(req.Status),
		Location:        req.Location,
		IsFolder:        req.IsFolder,
		ParentProjectID: req.ParentProjectID,
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = engine.StatusPlanning
	}
	if req.StartDate != "" {
		d, err := engine.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
		project.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := engine.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		project.EndDate = &d
	}
	if req.Budget != nil {
		b := decimal.NewFromFloat(*req.Budget)
		project.Budget = &b
	}

	if err := h.Engine.ValidateProjectWrite(r.Context(), project); err != nil {
		writeDomainError(w, "Invalid project", err)
		return
	}
	if err := h.Store.SaveProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// DeleteProject removes a project.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProjectForecast returns the weekly staffing forecast.
// GET /api/projects/{id}/forecast?start=YYYY-MM-DD&end=YYYY-MM-DD (window optional)
func (h *Handler) GetProjectForecast(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseOptionalWindow(w, r)
	if !ok {
		return
	}
	forecast, err := h.Engine.ProjectStaffingNeeds(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// GetProjectCost returns the cost summary with budget variance.
func (h *Handler) GetProjectCost(w http.ResponseWriter, r *http.Request) {
	cost, err := h.Engine.CalculateProjectCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute cost", err)
		return
	}
	writeJSON(w, http.StatusOK, cost)
}

// GetProjectGaps returns the zero-coverage weeks.
// GET /api/projects/{id}/gaps?start=...&end=... (window optional)
func (h *Handler) GetProjectGaps(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseOptionalWindow(w, r)
	if !ok {
		return
	}
	gaps, err := h.Engine.DetectStaffingGaps(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, "Failed to detect gaps", err)
		return
	}
	writeJSON(w, http.StatusOK, gaps)
}

// GetProjectReport returns the monthly planning report.
// GET /api/projects/{id}/report?include_subprojects=true
func (h *Handler) GetProjectReport(w http.ResponseWriter, r *http.Request) {
	includeSub := r.URL.Query().Get("include_subprojects") == "true"
	report, err := h.Engine.CalculateMonthlyPlanningReport(r.Context(), chi.URLParam(r, "id"), includeSub)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SimulateProject runs a what-if scenario without persisting anything.
// POST /api/projects/{id}/simulate
func (h *Handler) SimulateProject(w http.ResponseWriter, r *http.Request) {
	var changes engine.ScenarioChanges
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	result, err := h.Engine.SimulateScenario(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		writeDomainError(w, "Failed to simulate scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListProjectRates returns the project's rate overrides.
func (h *Handler) ListProjectRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Store.ListRoleRates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	dtos := make([]RoleRateDTO, len(rates))
	for i, rate := range rates {
		dtos[i] = RoleRateDTO{
			ID:           rate.ID,
			ProjectID:    rate.ProjectID,
			RoleID:       rate.RoleID,
			BillableRate: rate.BillableRate.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveProjectRate upserts a rate override on the project.
func (h *Handler) SaveProjectRate(w http.ResponseWriter, r *http.Request) {
	var req SaveRoleRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RoleID == "" {
		writeError(w, http.StatusBadRequest, "role_id is required", nil)
		return
	}

	rate := engine.ProjectRoleRate{
		ID:           uuid.NewString(),
		ProjectID:    chi.URLParam(r, "id"),
		RoleID:       req.RoleID,
		BillableRate: decimal.NewFromFloat(req.BillableRate),
	}
	if err := h.Store.SaveRoleRate(r.Context(), rate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, RoleRateDTO{
		ID:           rate.ID,
		ProjectID:    rate.ProjectID,
		RoleID:       rate.RoleID,
		BillableRate: rate.BillableRate.String(),
	})
}

// GetEffectiveRate resolves the billable rate for a role on a project,
// walking up the folder hierarchy.
// GET /api/projects/{id}/rates/{roleID}/effective
func (h *Handler) GetEffectiveRate(w http.ResponseWriter, r *http.Request) {
	resolution, err := h.Engine.ProjectRoleRateFor(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "roleID"))
	if err != nil {
		writeDomainError(w, "Failed to resolve rate", err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

// ListProjectAssignments returns the project's assignments.
func (h *Handler) ListProjectAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Store.ListAssignmentsByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListProjectGhostStaff returns the project's ghost staff.
func (h *Handler) ListProjectGhostStaff(w http.ResponseWriter, r *http.Request) {
	ghosts, err := h.Store.ListGhostStaffByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ghost staff", err)
		return
	}

	dtos := make([]GhostStaffDTO, len(ghosts))
	for i, g := range ghosts {
		dtos[i] = toGhostStaffDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// SaveAssignment creates or updates an assignment. Over-allocation never
// blocks the save; callers use /api/assignments/validate for the warning.
func (h *Handler) SaveAssignment(w http.ResponseWriter, r *http.Request) {
	var req SaveAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	a := engine.Assignment{
		ID:                   req.ID,
		StaffID:              req.StaffID,
		ProjectID:            req.ProjectID,
		StartDate:            start,
		EndDate:              end,
		HoursPerWeek:         req.HoursPerWeek,
		RoleOnProject:        req.RoleOnProject,
		AllocationType:       engine.AllocationType(req.AllocationType),
		AllocationPercentage: req.AllocationPercentage,
		AllowOverAllocation:  req.AllowOverAllocation,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AllocationType == "" {
		a.AllocationType = engine.AllocationFull
	}
	if a.AllocationPercentage == 0 && a.AllocationType != engine.AllocationSplitByProjects {
		a.AllocationPercentage = 100
	}

	if err := h.Engine.ValidateAssignment(r.Context(), a); err != nil {
		writeDomainError(w, "Invalid assignment", err)
		return
	}
	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// GetAssignment returns a single assignment.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAssignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignment", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// DeleteAssignment removes an assignment.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAssignment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateAssignment runs the advisory over-allocation check on a proposed
// assignment. The response never blocks a save (can_override is always true).
// POST /api/assignments/validate
func (h *Handler) ValidateAssignment(w http.ResponseWriter, r *http.Request) {
	var req ValidateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	result, err := h.Engine.ValidateAssignmentAllocation(r.Context(),
		req.StaffID, start, end, req.AllocationPercentage, req.ExcludeAssignmentID)
	if err != nil {
		writeDomainError(w, "Failed to validate allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListMonthlyAllocations returns an assignment's per-month percentages.
func (h *Handler) ListMonthlyAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.Store.ListMonthlyAllocations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list monthly allocations", err)
		return
	}

	dtos := make([]MonthlyAllocationDTO, len(allocations))
	for i, ma := range allocations {
		dtos[i] = MonthlyAllocationDTO{
			ID:           ma.ID,
			AssignmentID: ma.AssignmentID,
			Month:        ma.Month.Key(),
			Percentage:   ma.Percentage,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveMonthlyAllocation upserts one month percentage on an assignment.
// POST /api/assignments/{id}/monthly-allocations
func (h *Handler) SaveMonthlyAllocation(w http.ResponseWriter, r *http.Request) {
	var req SaveMonthlyAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	ma := engine.MonthlyAllocation{
		ID:           uuid.NewString(),
		AssignmentID: chi.URLParam(r, "id"),
		Month:        month,
		Percentage:   req.Percentage,
	}
	if err := h.Engine.ValidateMonthlyAllocation(r.Context(), ma); err != nil {
		writeDomainError(w, "Invalid monthly allocation", err)
		return
	}
	if err := h.Store.SaveMonthlyAllocation(r.Context(), ma); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save monthly allocation", err)
		return
	}
	writeJSON(w, http.StatusCreated, MonthlyAllocationDTO{
		ID:           ma.ID,
		AssignmentID: ma.AssignmentID,
		Month:        ma.Month.Key(),
		Percentage:   ma.Percentage,
	})
}

// =============================================================================
// GHOST STAFF HANDLERS
// =============================================================================

// SaveGhostStaff creates or updates a placeholder.
func (h *Handler) SaveGhostStaff(w http.ResponseWriter, r *http.Request) {
	var req SaveGhostStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProjectID == "" || req.RoleID == "" {
		writeError(w, http.StatusBadRequest, "project_id and role_id are required", nil)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	g := engine.GhostStaff{
		ID:                   req.ID,
		ProjectID:            req.ProjectID,
		RoleID:               req.RoleID,
		Name:                 req.Name,
		StartDate:            start,
		EndDate:              end,
		HoursPerWeek:         req.HoursPerWeek,
		AllocationPercentage: req.AllocationPercentage,
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.HoursPerWeek == 0 {
		g.HoursPerWeek = engine.StandardWeeklyHours
	}
	if g.AllocationPercentage == 0 {
		g.AllocationPercentage = 100
	}
	if g.Name == "" {
		role, err := h.Store.GetRole(r.Context(), g.RoleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up role", err)
			return
		}
		if role == nil {
			writeError(w, http.StatusNotFound, "Role not found", nil)
			return
		}
		g.Name = role.Name + " (open)"
	}

	if err := h.Store.SaveGhostStaff(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save ghost staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGhostStaffDTO(g))
}

// DeleteGhostStaff removes a placeholder.
func (h *Handler) DeleteGhostStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteGhostStaff(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete ghost staff", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceGhostStaff converts a placeholder into a real assignment. One-way.
// POST /api/ghost-staff/{id}/replace
func (h *Handler) ReplaceGhostStaff(w http.ResponseWriter, r *http.Request) {
	var req ReplaceGhostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.StaffID == "" {
		writeError(w, http.StatusBadRequest, "staff_id is required", nil)
		return
	}

	a, err := h.Engine.ReplaceGhostStaff(r.Context(), chi.URLParam(r, "id"), req.StaffID, uuid.NewString())
	if err != nil {
		writeDomainError(w, "Failed to replace ghost staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*a))
}

// =============================================================================
// FORECAST / CONFLICT HANDLERS
// =============================================================================

// GetOrganizationForecast returns the org-wide weekly forecast and per-staff
// utilization.
// GET /api/forecast/organization?start=...&end=...
func (h *Handler) GetOrganizationForecast(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	forecast, err := h.Engine.CalculateOrganizationForecast(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute organization forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// GetOrganizationConflicts returns the org-wide over-allocation roster.
// GET /api/overallocations?start=...&end=...
func (h *Handler) GetOrganizationConflicts(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	conflicts, err := h.Engine.OrganizationOverAllocations(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, "Failed to detect conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, conflicts)
}

// =============================================================================
// SUGGESTION HANDLERS
// =============================================================================

// SuggestStaff returns ranked candidates for an open role.
// POST /api/suggestions
func (h *Handler) SuggestStaff(w http.ResponseWriter, r *http.Request) {
	var req SuggestStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	pct := req.AllocationPercentage
	if pct == 0 {
		pct = 100
	}

	suggestions, err := h.Engine.SuggestStaff(r.Context(), req.RoleID, start, end, pct)
	if err != nil {
		writeDomainError(w, "Failed to suggest staff", err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// FlagNewHireNeeds compares a required headcount against the candidate pool.
// POST /api/suggestions/new-hires
func (h *Handler) FlagNewHireNeeds(w http.ResponseWriter, r *http.Request) {
	var req NewHireNeedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	pct := req.AllocationPercentage
	if pct == 0 {
		pct = 100
	}
	var asOf *engine.Date
	if req.AsOf != "" {
		d, err := engine.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
		asOf = &d
	}

	need, err := h.Engine.FlagNewHireNeeds(r.Context(), req.RoleID, start, end, req.RequiredCount, pct, asOf)
	if err != nil {
		writeDomainError(w, "Failed to flag new hire needs", err)
		return
	}
	writeJSON(w, http.StatusOK, need)
}

// =============================================================================
// PLANNING HANDLERS
// =============================================================================

// ListExercises returns all planning exercises.
func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.Store.ListExercises(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exercises", err)
		return
	}

	dtos := make([]ExerciseDTO, len(exercises))
	for i, ex := range exercises {
		dtos[i] = toExerciseDTO(ex)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExercise builds a draft exercise from a JSON template. Role names in
// the template resolve against the roles table.
// POST /api/planning/exercises
func (h *Handler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var template factory.ExerciseJSON
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list roles", err)
		return
	}
	roleIDByName := make(map[string]string, len(roles))
	for _, role := range roles {
		roleIDByName[role.Name] = role.ID
	}

	ex, projects, planningRoles, err := h.ExerciseFactory.FromJSON(template, roleIDByName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exercise template", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveExercise(ctx, *ex); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save exercise", err)
		return
	}
	for _, p := range projects {
		if err := h.Store.SavePlanningProject(ctx, p); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save planning project", err)
			return
		}
	}
	for _, role := range planningRoles {
		if err := h.Store.SavePlanningRole(ctx, role); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save planning role", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, toExerciseDTO(*ex))
}

// GetExerciseCoverage returns the role-by-month demand grid.
func (h *Handler) GetExerciseCoverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := h.Engine.CalculatePlanningCoverage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, coverage)
}

// GetExerciseMinimumStaff returns peak-month headcounts per role.
func (h *Handler) GetExerciseMinimumStaff(w http.ResponseWriter, r *http.Request) {
	needs, err := h.Engine.CalculateMinimumStaffPerRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute minimum staff", err)
		return
	}
	writeJSON(w, http.StatusOK, needs)
}

// ApplyExercise materializes the exercise into real projects and ghost staff.
// POST /api/planning/exercises/{id}/apply?dry_run=true for a preview.
func (h *Handler) ApplyExercise(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"
	result, err := h.Engine.ApplyPlanningExercise(r.Context(), chi.URLParam(r, "id"), dryRun)
	if err != nil {
		writeDomainError(w, "Failed to apply exercise", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteExercise removes an exercise and its planning entities.
func (h *Handler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete exercise", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseWindow reads required start/end query params.
func parseWindow(w http.ResponseWriter, r *http.Request) (engine.Date, engine.Date, bool) {
	start, err := engine.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing start (use YYYY-MM-DD)", err)
		return engine.Date{}, engine.Date{}, false
	}
	end, err := engine.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing end (use YYYY-MM-DD)", err)
		return engine.Date{}, engine.Date{}, false
	}
	return start, end, true
}

// parseOptionalWindow reads optional start/end query params; nil means
// "use the project's own dates".
func parseOptionalWindow(w http.ResponseWriter, r *http.Request) (*engine.Date, *engine.Date, bool) {
	var start, end *engine.Date
	if s := r.URL.Query().Get("start"); s != "" {
		d, err := engine.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
			return nil, nil, false
		}
		start = &d
	}
	if s := r.URL.Query().Get("end"); s != "" {
		d, err := engine.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
			return nil, nil, false
		}
		end = &d
	}
	return start, end, true
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrRoleInUse),
		errors.Is(err, engine.ErrStaffHasActiveAssignments),
		errors.Is(err, engine.ErrGhostAlreadyReplaced),
		errors.Is(err, engine.ErrExerciseAlreadyApplied):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
