package engine

import (
	"context"
)

// Engine is the allocation resolution and forecast aggregation core. It is
// stateless: every call reads fresh persisted state through the Store.
type Engine struct {
	Store Store
}

func New(store Store) *Engine { return &Engine{Store: store} }

// =============================================================================
// WRITE-TIME GUARDS
// =============================================================================
// Simple CRUD lives in the API layer; the guards below enforce the
// invariants that need more than field checks.

// ValidateAssignment checks an assignment's fields and referenced entities
// before a write.
func (e *Engine) ValidateAssignment(ctx context.Context, a Assignment) error {
	if a.StaffID == "" {
		return invalid("staff_id", "required")
	}
	if a.ProjectID == "" {
		return invalid("project_id", "required")
	}
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return invalid("start_date", "start and end dates are required")
	}
	if !a.EndDate.After(a.StartDate) {
		return invalid("end_date", "end date must be after start date")
	}
	if a.HoursPerWeek <= 0 {
		return invalid("hours_per_week", "must be a positive number")
	}
	if !a.AllocationType.Valid() {
		return invalid("allocation_type", "must be one of full, percentage_total, split_by_projects, percentage_monthly")
	}
	if a.AllocationPercentage < 0 || a.AllocationPercentage > 100 {
		return invalid("allocation_percentage", "must be between 0 and 100")
	}

	staff, err := e.Store.GetStaff(ctx, a.StaffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return notFound("staff", a.StaffID)
	}
	project, err := e.Store.GetProject(ctx, a.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return notFound("project", a.ProjectID)
	}
	return nil
}

// ValidateMonthlyAllocation checks a per-month percentage row.
func (e *Engine) ValidateMonthlyAllocation(ctx context.Context, ma MonthlyAllocation) error {
	if ma.Percentage < 0 || ma.Percentage > 100 {
		return invalid("percentage", "must be between 0 and 100")
	}
	a, err := e.Store.GetAssignment(ctx, ma.AssignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return notFound("assignment", ma.AssignmentID)
	}
	return nil
}

// ValidateProjectWrite enforces the hierarchy invariants: a parent must be a
// folder, a non-folder cannot keep children, and a project can never become
// its own ancestor. The ancestry walk is iterative with a visited set since
// folder depth is user-controlled.
func (e *Engine) ValidateProjectWrite(ctx context.Context, p Project) error {
	if p.Name == "" {
		return invalid("name", "required")
	}
	if !p.Status.Valid() {
		return invalid("status", "must be one of planning, active, completed, cancelled, on-hold")
	}
	if p.StartDate != nil && p.EndDate != nil && !p.EndDate.After(*p.StartDate) {
		return invalid("end_date", "end date must be after start date")
	}

	if !p.IsFolder && p.ID != "" {
		children, err := e.Store.ListProjects(ctx, ProjectFilter{ParentProjectID: &p.ID})
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return invalid("is_folder", "project with child projects must remain a folder")
		}
	}

	if p.ParentProjectID == "" {
		return nil
	}
	if p.ParentProjectID == p.ID {
		return invalid("parent_project_id", "project cannot be its own parent")
	}

	parent, err := e.Store.GetProject(ctx, p.ParentProjectID)
	if err != nil {
		return err
	}
	if parent == nil {
		return notFound("project", p.ParentProjectID)
	}
	if !parent.IsFolder {
		return invalid("parent_project_id", "parent project must be a folder")
	}

	// Walk up from the proposed parent; hitting p.ID means a cycle.
	visited := map[string]bool{}
	cur := parent
	for cur != nil {
		if cur.ID == p.ID {
			return invalid("parent_project_id", "project cannot become its own ancestor")
		}
		if visited[cur.ID] {
			break
		}
		visited[cur.ID] = true
		if cur.ParentProjectID == "" {
			break
		}
		cur, err = e.Store.GetProject(ctx, cur.ParentProjectID)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteRole removes a role unless staff still reference it.
func (e *Engine) DeleteRole(ctx context.Context, roleID string) error {
	role, err := e.Store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return notFound("role", roleID)
	}
	staff, err := e.Store.ListStaffByRole(ctx, roleID)
	if err != nil {
		return err
	}
	if len(staff) > 0 {
		return ErrRoleInUse
	}
	return e.Store.DeleteRole(ctx, roleID)
}

// DeleteStaff removes a staff member and cascade-deletes their assignments,
// but refuses while any assignment is still active (ends today or later).
func (e *Engine) DeleteStaff(ctx context.Context, staffID string) error {
	staff, err := e.Store.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return notFound("staff", staffID)
	}
	assignments, err := e.Store.ListAssignmentsByStaff(ctx, staffID)
	if err != nil {
		return err
	}
	today := Today()
	for _, a := range assignments {
		if a.EndDate.AfterOrEqual(today) {
			return ErrStaffHasActiveAssignments
		}
	}
	return e.Store.DeleteStaff(ctx, staffID)
}

// ReplaceGhostStaff converts a placeholder into a real assignment for the
// given staff member. One-way: a replaced ghost stays replaced, and a second
// replacement is rejected.
func (e *Engine) ReplaceGhostStaff(ctx context.Context, ghostID, staffID, assignmentID string) (*Assignment, error) {
	ghost, err := e.Store.GetGhostStaff(ctx, ghostID)
	if err != nil {
		return nil, err
	}
	if ghost == nil {
		return nil, notFound("ghost_staff", ghostID)
	}
	if ghost.Replaced() {
		return nil, ErrGhostAlreadyReplaced
	}
	staff, err := e.Store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, notFound("staff", staffID)
	}
	role, err := e.Store.GetRole(ctx, ghost.RoleID)
	if err != nil {
		return nil, err
	}

	a := Assignment{
		ID:                   assignmentID,
		StaffID:              staffID,
		ProjectID:            ghost.ProjectID,
		StartDate:            ghost.StartDate,
		EndDate:              ghost.EndDate,
		HoursPerWeek:         ghost.HoursPerWeek,
		AllocationType:       AllocationPercentageTotal,
		AllocationPercentage: ghost.AllocationPercentage,
	}
	if role != nil {
		a.RoleOnProject = role.Name
	}
	if err := e.ValidateAssignment(ctx, a); err != nil {
		return nil, err
	}
	if err := e.Store.SaveAssignment(ctx, a); err != nil {
		return nil, err
	}

	ghost.ReplacedByStaffID = staffID
	if err := e.Store.SaveGhostStaff(ctx, *ghost); err != nil {
		return nil, err
	}
	return &a, nil
}
