/*
Package engine implements the allocation resolution and forecast
aggregation core of the staffing system.

PURPOSE:
  Given staff, projects, and time-bound assignments, the engine answers:
  how much of each person's time is committed in any window, what will that
  commitment cost, and which billable rate applies. It also detects
  over-allocation, ranks candidate staff for open roles, and analyzes
  hypothetical planning exercises.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role/Staff/Project/Assignment: the persisted entity shapes
  - AllocationType: the four allocation policies (closed tagged set)
  - ProjectRoleRate: explicit billable-rate override on a project node
  - GhostStaff: placeholder for a not-yet-hired position
  - PlanningExercise/Project/Role: sandbox scenario entities

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every money value, never float64
  2. Request-scoped: the engine reads fresh state per call, caches nothing
  3. Advisory conflicts: over-allocation is reported, never hard-blocked
  4. Pure outputs: results are plain structs with stable JSON field names

SEE ALSO:
  - allocation.go: effective allocation percentage per policy
  - rates.go: three-tier billable rate resolution
  - forecast.go: weekly/monthly cost aggregation
  - store.go: the data-access interface the engine depends on
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLE
// =============================================================================

// Role is a job function with an internal cost and an optional default
// billable rate. Roles cannot be deleted while staff reference them.
type Role struct {
	ID                  string
	Name                string
	InternalHourlyCost  decimal.Decimal
	DefaultBillableRate *decimal.Decimal
	CreatedAt           time.Time
}

// =============================================================================
// STAFF
// =============================================================================

// Staff belongs to exactly one Role. InternalHourlyCost may differ from the
// role default. The availability window bounds when the person can be
// assigned at all; nil means unbounded on that side.
type Staff struct {
	ID                 string
	Name               string
	RoleID             string
	InternalHourlyCost decimal.Decimal
	AvailabilityStart  *Date
	AvailabilityEnd    *Date
	Skills             []string
	CreatedAt          time.Time
}

// =============================================================================
// PROJECT
// =============================================================================

type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
	StatusOnHold    ProjectStatus = "on-hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusCompleted, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

// Project is a job or a folder. Folders (IsFolder) can own child projects
// via ParentProjectID (a tree, validated acyclic at write time) and can hold
// ProjectRoleRate overrides that children inherit. A non-folder never has
// children.
type Project struct {
	ID              string
	Name            string
	StartDate       *Date
	EndDate         *Date
	Status          ProjectStatus
	Budget          *decimal.Decimal
	Location        string
	IsFolder        bool
	ParentProjectID string
	CreatedAt       time.Time
}

// DatedPeriod returns the project's own date range, or false when either
// bound is missing (such projects cannot be forecast).
func (p Project) DatedPeriod() (Period, bool) {
	if p.StartDate == nil || p.EndDate == nil {
		return Period{}, false
	}
	return Period{Start: *p.StartDate, End: *p.EndDate}, true
}

// ProjectRoleRate is an explicit billable-rate override for a role on one
// project/folder node. (project_id, role_id) is unique.
type ProjectRoleRate struct {
	ID           string
	ProjectID    string
	RoleID       string
	BillableRate decimal.Decimal
	CreatedAt    time.Time
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

// AllocationType is a closed tagged set; resolution dispatches on the tag.
type AllocationType string

const (
	// AllocationFull commits the whole capacity: always 100%.
	AllocationFull AllocationType = "full"
	// AllocationPercentageTotal uses the stored percentage for any period.
	AllocationPercentageTotal AllocationType = "percentage_total"
	// AllocationSplitByProjects divides 100 by the number of assignments the
	// staff member holds that overlap the queried period. Computed, never
	// stored; must be recomputed on every query.
	AllocationSplitByProjects AllocationType = "split_by_projects"
	// AllocationPercentageMonthly uses per-month rows, day-weighted across
	// the queried period; months without a row default to 100.
	AllocationPercentageMonthly AllocationType = "percentage_monthly"
)

func (t AllocationType) Valid() bool {
	switch t {
	case AllocationFull, AllocationPercentageTotal, AllocationSplitByProjects, AllocationPercentageMonthly:
		return true
	}
	return false
}

// Assignment commits one staff member to one project for a date range.
// AllocationPercentage's meaning depends on AllocationType. RoleOnProject is
// a free-text label matched by name against role rate overrides.
type Assignment struct {
	ID                   string
	StaffID              string
	ProjectID            string
	StartDate            Date
	EndDate              Date
	HoursPerWeek         float64
	RoleOnProject        string
	AllocationType       AllocationType
	AllocationPercentage float64
	AllowOverAllocation  bool
	CreatedAt            time.Time
}

// Range returns the assignment's own inclusive date range.
func (a Assignment) Range() Period { return Period{Start: a.StartDate, End: a.EndDate} }

// Overlaps reports whether the assignment's range intersects [start, end].
func (a Assignment) Overlaps(start, end Date) bool {
	return OverlapDays(&a.StartDate, &a.EndDate, &start, &end) > 0
}

// MonthlyAllocation is an explicit percentage for one calendar month of a
// percentage_monthly assignment. (assignment_id, month) is unique.
type MonthlyAllocation struct {
	ID           string
	AssignmentID string
	Month        Month
	Percentage   float64
}

// =============================================================================
// GHOST STAFF
// =============================================================================

// GhostStaff is a placeholder for a not-yet-hired position on a project.
// Same cost shape as an assignment but with a role instead of a person.
// Replacement by a real staff member is one-way: replacing twice is rejected.
type GhostStaff struct {
	ID                   string
	ProjectID            string
	RoleID               string
	Name                 string
	StartDate            Date
	EndDate              Date
	HoursPerWeek         float64
	AllocationPercentage float64
	ReplacedByStaffID    string
	CreatedAt            time.Time
}

func (g GhostStaff) Replaced() bool { return g.ReplacedByStaffID != "" }

func (g GhostStaff) Overlaps(start, end Date) bool {
	return OverlapDays(&g.StartDate, &g.EndDate, &start, &end) > 0
}

// =============================================================================
// PLANNING EXERCISE
// =============================================================================

type ExerciseStatus string

const (
	ExerciseDraft   ExerciseStatus = "draft"
	ExerciseApplied ExerciseStatus = "applied"
)

// PlanningExercise is a sandbox scenario owning hypothetical projects.
type PlanningExercise struct {
	ID          string
	Name        string
	Description string
	Status      ExerciseStatus
	CreatedAt   time.Time
}

// PlanningProject is a hypothetical project inside an exercise. Role
// requirements are offset in months from its start date.
type PlanningProject struct {
	ID             string
	ExerciseID     string
	Name           string
	StartDate      Date
	DurationMonths int
	Location       string
	Budget         *decimal.Decimal
	CreatedAt      time.Time
}

// OverlapMode controls how concurrent role needs combine into headcount.
type OverlapMode string

const (
	// OverlapEfficient assumes staff can be shared across concurrent needs.
	OverlapEfficient OverlapMode = "efficient"
	// OverlapConservative assumes dedicated staff per project.
	OverlapConservative OverlapMode = "conservative"
)

func (m OverlapMode) Valid() bool {
	return m == OverlapEfficient || m == OverlapConservative
}

// PlanningRole is a hypothetical role requirement: Count heads at
// AllocationPercentage, active from StartMonthOffset to EndMonthOffset
// (exclusive, relative to the project start; nil means project duration).
type PlanningRole struct {
	ID                   string
	PlanningProjectID    string
	RoleID               string
	Count                int
	StartMonthOffset     int
	EndMonthOffset       *int
	AllocationPercentage float64
	HoursPerWeek         float64
	OverlapMode          OverlapMode
	CreatedAt            time.Time
}

// ActivePeriod returns the role requirement's concrete date range given its
// owning project.
func (r PlanningRole) ActivePeriod(project PlanningProject) Period {
	endOffset := project.DurationMonths
	if r.EndMonthOffset != nil {
		endOffset = *r.EndMonthOffset
	}
	start := project.StartDate.AddMonths(r.StartMonthOffset)
	end := project.StartDate.AddMonths(endOffset).AddDays(-1)
	return Period{Start: start, End: end}
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MoneyFromHours multiplies an hour count by an hourly rate.
func MoneyFromHours(hours float64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(hours).Mul(rate)
}

// StandardWeeklyHours is the capacity baseline used for utilization.
const StandardWeeklyHours = 40.0
