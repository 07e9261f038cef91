/*
store.go - Data-access interface the engine depends on

PURPOSE:
  The engine never touches a database directly; it reads and writes through
  this typed interface. Each engine call reads fresh state (no caching, no
  memoization across calls) so computed values like split_by_projects always
  reflect the current persisted assignments.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - engine/store:  in-memory store for tests and dev

RANGE QUERIES:
  ListAssignmentsOverlapping is the index-backed query the allocation
  resolver and over-allocation detector rely on: all assignments for a
  staff member whose date range intersects a window.
*/
package engine

import "context"

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Statuses        []ProjectStatus
	ParentProjectID *string // non-nil: only direct children of this id ("" = roots)
}

// Store is the persistence boundary. All methods are synchronous; writes are
// transactional per call.
type Store interface {
	// Roles
	GetRole(ctx context.Context, id string) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	SaveRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id string) error

	// Staff
	GetStaff(ctx context.Context, id string) (*Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	ListStaffByRole(ctx context.Context, roleID string) ([]Staff, error)
	SaveStaff(ctx context.Context, staff Staff) error
	// DeleteStaff cascade-deletes the staff member's assignments.
	DeleteStaff(ctx context.Context, id string) error

	// Projects
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	SaveProject(ctx context.Context, project Project) error
	DeleteProject(ctx context.Context, id string) error

	// Project role rates
	ListRoleRates(ctx context.Context, projectID string) ([]ProjectRoleRate, error)
	SaveRoleRate(ctx context.Context, rate ProjectRoleRate) error
	DeleteRoleRate(ctx context.Context, id string) error

	// Assignments
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	ListAssignmentsByProject(ctx context.Context, projectID string) ([]Assignment, error)
	ListAssignmentsByStaff(ctx context.Context, staffID string) ([]Assignment, error)
	// ListAssignmentsOverlapping returns the staff member's assignments whose
	// inclusive range intersects [start, end].
	ListAssignmentsOverlapping(ctx context.Context, staffID string, start, end Date) ([]Assignment, error)
	SaveAssignment(ctx context.Context, a Assignment) error
	DeleteAssignment(ctx context.Context, id string) error

	// Monthly allocations (percentage_monthly assignments)
	ListMonthlyAllocations(ctx context.Context, assignmentID string) ([]MonthlyAllocation, error)
	SaveMonthlyAllocation(ctx context.Context, ma MonthlyAllocation) error

	// Ghost staff
	GetGhostStaff(ctx context.Context, id string) (*GhostStaff, error)
	ListGhostStaffByProject(ctx context.Context, projectID string) ([]GhostStaff, error)
	SaveGhostStaff(ctx context.Context, g GhostStaff) error
	DeleteGhostStaff(ctx context.Context, id string) error

	// Planning exercises
	GetExercise(ctx context.Context, id string) (*PlanningExercise, error)
	ListExercises(ctx context.Context) ([]PlanningExercise, error)
	SaveExercise(ctx context.Context, ex PlanningExercise) error
	DeleteExercise(ctx context.Context, id string) error
	ListPlanningProjects(ctx context.Context, exerciseID string) ([]PlanningProject, error)
	SavePlanningProject(ctx context.Context, p PlanningProject) error
	ListPlanningRoles(ctx context.Context, planningProjectID string) ([]PlanningRole, error)
	SavePlanningRole(ctx context.Context, r PlanningRole) error

	// Reset clears all data. Dev/demo only.
	Reset(ctx context.Context) error
}
