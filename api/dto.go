/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

  Engine result types (forecasts, timelines, reports, suggestions) already
  carry stable JSON tags and are serialized verbatim; only the persisted
  entities get DTOs here.

TYPES:
  Role:        RoleDTO, SaveRoleRequest
  Staff:       StaffDTO, SaveStaffRequest
  Project:     ProjectDTO, SaveProjectRequest
  Rate:        RoleRateDTO, SaveRoleRateRequest
  Assignment:  AssignmentDTO, SaveAssignmentRequest, MonthlyAllocationDTO
  Ghost staff: GhostStaffDTO, SaveGhostStaffRequest, ReplaceGhostRequest
  Planning:    ExerciseDTO, exercise templates via factory.ExerciseJSON
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/exercise.go: ExerciseJSON template type
*/
package api

import (
	"time"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// ROLE TYPES
// =============================================================================

// RoleDTO represents a role in API responses.
type RoleDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	InternalHourlyCost  string  `json:"internal_hourly_cost"`
	DefaultBillableRate *string `json:"default_billable_rate,omitempty"`
	CreatedAt           string  `json:"created_at,omitempty"`
}

// SaveRoleRequest creates or updates a role.
type SaveRoleRequest struct {
	ID                  string   `json:"id,omitempty"`
	Name                string   `json:"name"`
	InternalHourlyCost  float64  `json:"internal_hourly_cost"`
	DefaultBillableRate *float64 `json:"default_billable_rate,omitempty"`
}

// =============================================================================
// STAFF TYPES
// =============================================================================

// StaffDTO represents a staff member in API responses.
type StaffDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	RoleID             string   `json:"role_id"`
	InternalHourlyCost string   `json:"internal_hourly_cost"`
	AvailabilityStart  string   `json:"availability_start,omitempty"`
	AvailabilityEnd    string   `json:"availability_end,omitempty"`
	Skills             []string `json:"skills"`
	CreatedAt          string   `json:"created_at,omitempty"`
}

// SaveStaffRequest creates or updates a staff member.
type SaveStaffRequest struct {
	ID                 string   `json:"id,omitempty"`
	Name               string   `json:"name"`
	RoleID             string   `json:"role_id"`
	InternalHourlyCost float64  `json:"internal_hourly_cost"`
	AvailabilityStart  string   `json:"availability_start,omitempty"`
	AvailabilityEnd    string   `json:"availability_end,omitempty"`
	Skills             []string `json:"skills,omitempty"`
}

// =============================================================================
// PROJECT TYPES
// =============================================================================

// ProjectDTO represents a project or folder in API responses.
type ProjectDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	Status          string   `json:"status"`
	Budget          *float64 `json:"budget,omitempty"`
	Location        string   `json:"location,omitempty"`
	IsFolder        bool     `json:"is_folder"`
	ParentProjectID string   `json:"parent_project_id,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

// SaveProjectRequest creates or updates a project.
type SaveProjectRequest struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	Status          string   `json:"status,omitempty"`
	Budget          *float64 `json:"budget,omitempty"`
	Location        string   `json:"location,omitempty"`
	IsFolder        bool     `json:"is_folder,omitempty"`
	ParentProjectID string   `json:"parent_project_id,omitempty"`
}

// RoleRateDTO represents a per-project billable rate override.
type RoleRateDTO struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	RoleID       string `json:"role_id"`
	BillableRate string `json:"billable_rate"`
}

// SaveRoleRateRequest creates or updates a rate override.
type SaveRoleRateRequest struct {
	RoleID       string  `json:"role_id"`
	BillableRate float64 `json:"billable_rate"`
}

// =============================================================================
// ASSIGNMENT TYPES
// =============================================================================

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID                   string  `json:"id"`
	StaffID              string  `json:"staff_id"`
	ProjectID            string  `json:"project_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoursPerWeek         float64 `json:"hours_per_week"`
	RoleOnProject        string  `json:"role_on_project,omitempty"`
	AllocationType       string  `json:"allocation_type"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	AllowOverAllocation  bool    `json:"allow_over_allocation"`
	CreatedAt            string  `json:"created_at,omitempty"`
}

// SaveAssignmentRequest creates or updates an assignment.
type SaveAssignmentRequest struct {
	ID                   string  `json:"id,omitempty"`
	StaffID              string  `json:"staff_id"`
	ProjectID            string  `json:"project_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoursPerWeek         float64 `json:"hours_per_week"`
	RoleOnProject        string  `json:"role_on_project,omitempty"`
	AllocationType       string  `json:"allocation_type,omitempty"`
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
	AllowOverAllocation  bool    `json:"allow_over_allocation,omitempty"`
}

// MonthlyAllocationDTO is one per-month percentage row.
type MonthlyAllocationDTO struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	Month        string  `json:"month"`
	Percentage   float64 `json:"percentage"`
}

// SaveMonthlyAllocationRequest sets a month percentage on an assignment.
type SaveMonthlyAllocationRequest struct {
	Month      string  `json:"month"`
	Percentage float64 `json:"percentage"`
}

// ValidateAllocationRequest asks whether a proposed assignment would
// over-allocate its staff member.
type ValidateAllocationRequest struct {
	StaffID              string  `json:"staff_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	ExcludeAssignmentID  string  `json:"exclude_assignment_id,omitempty"`
}

// =============================================================================
// GHOST STAFF TYPES
// =============================================================================

// GhostStaffDTO represents a ghost staff placeholder in API responses.
type GhostStaffDTO struct {
	ID                   string  `json:"id"`
	ProjectID            string  `json:"project_id"`
	RoleID               string  `json:"role_id"`
	Name                 string  `json:"name"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoursPerWeek         float64 `json:"hours_per_week"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	ReplacedByStaffID    string  `json:"replaced_by_staff_id,omitempty"`
	CreatedAt            string  `json:"created_at,omitempty"`
}

// SaveGhostStaffRequest creates or updates a ghost staff placeholder.
type SaveGhostStaffRequest struct {
	ID                   string  `json:"id,omitempty"`
	ProjectID            string  `json:"project_id"`
	RoleID               string  `json:"role_id"`
	Name                 string  `json:"name,omitempty"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	HoursPerWeek         float64 `json:"hours_per_week,omitempty"`
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
}

// ReplaceGhostRequest replaces a ghost with a real staff member.
type ReplaceGhostRequest struct {
	StaffID string `json:"staff_id"`
}

// =============================================================================
// PLANNING TYPES
// =============================================================================

// ExerciseDTO represents a planning exercise in API responses.
type ExerciseDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SuggestStaffRequest asks for ranked candidates for an open role.
type SuggestStaffRequest struct {
	RoleID               string  `json:"role_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
}

// NewHireNeedsRequest compares required headcount against candidates.
type NewHireNeedsRequest struct {
	RoleID               string  `json:"role_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	RequiredCount        int     `json:"required_count"`
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
	AsOf                 string  `json:"as_of,omitempty"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRoleDTO(r engine.Role) RoleDTO {
	dto := RoleDTO{
		ID:                 r.ID,
		Name:               r.Name,
		InternalHourlyCost: r.InternalHourlyCost.String(),
		CreatedAt:          formatTime(r.CreatedAt),
	}
	if r.DefaultBillableRate != nil {
		v := r.DefaultBillableRate.String()
		dto.DefaultBillableRate = &v
	}
	return dto
}

func toStaffDTO(s engine.Staff) StaffDTO {
	dto := StaffDTO{
		ID:                 s.ID,
		Name:               s.Name,
		RoleID:             s.RoleID,
		InternalHourlyCost: s.InternalHourlyCost.String(),
		Skills:             s.Skills,
		CreatedAt:          formatTime(s.CreatedAt),
	}
	if dto.Skills == nil {
		dto.Skills = []string{}
	}
	if s.AvailabilityStart != nil {
		dto.AvailabilityStart = s.AvailabilityStart.String()
	}
	if s.AvailabilityEnd != nil {
		dto.AvailabilityEnd = s.AvailabilityEnd.String()
	}
	return dto
}

func toProjectDTO(p engine.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:              p.ID,
		Name:            p.Name,
		Status:          string(p.Status),
		Location:        p.Location,
		IsFolder:        p.IsFolder,
		ParentProjectID: p.ParentProjectID,
		CreatedAt:       formatTime(p.CreatedAt),
	}
	if p.StartDate != nil {
		dto.StartDate = p.StartDate.String()
	}
	if p.EndDate != nil {
		dto.EndDate = p.EndDate.String()
	}
	if p.Budget != nil {
		v, _ := p.Budget.Float64()
		dto.Budget = &v
	}
	return dto
}

func toAssignmentDTO(a engine.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:                   a.ID,
		StaffID:              a.StaffID,
		ProjectID:            a.ProjectID,
		StartDate:            a.StartDate.String(),
		EndDate:              a.EndDate.String(),
		HoursPerWeek:         a.HoursPerWeek,
		RoleOnProject:        a.RoleOnProject,
		AllocationType:       string(a.AllocationType),
		AllocationPercentage: a.AllocationPercentage,
		AllowOverAllocation:  a.AllowOverAllocation,
		CreatedAt:            formatTime(a.CreatedAt),
	}
}

func toGhostStaffDTO(g engine.GhostStaff) GhostStaffDTO {
	return GhostStaffDTO{
		ID:                   g.ID,
		ProjectID:            g.ProjectID,
		RoleID:               g.RoleID,
		Name:                 g.Name,
		StartDate:            g.StartDate.String(),
		EndDate:              g.EndDate.String(),
		HoursPerWeek:         g.HoursPerWeek,
		AllocationPercentage: g.AllocationPercentage,
		ReplacedByStaffID:    g.ReplacedByStaffID,
		CreatedAt:            formatTime(g.CreatedAt),
	}
}

func toExerciseDTO(ex engine.PlanningExercise) ExerciseDTO {
	return ExerciseDTO{
		ID:          ex.ID,
		Name:        ex.Name,
		Description: ex.Description,
		Status:      string(ex.Status),
		CreatedAt:   formatTime(ex.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
