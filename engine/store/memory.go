// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu                 sync.RWMutex
	roles              map[string]engine.Role
	staff              map[string]engine.Staff
	projects           map[string]engine.Project
	roleRates          map[string]engine.ProjectRoleRate
	assignments        map[string]engine.Assignment
	monthlyAllocations map[string]engine.MonthlyAllocation
	ghosts             map[string]engine.GhostStaff
	exercises          map[string]engine.PlanningExercise
	planningProjects   map[string]engine.PlanningProject
	planningRoles      map[string]engine.PlanningRole
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.roles = make(map[string]engine.Role)
	m.staff = make(map[string]engine.Staff)
	m.projects = make(map[string]engine.Project)
	m.roleRates = make(map[string]engine.ProjectRoleRate)
	m.assignments = make(map[string]engine.Assignment)
	m.monthlyAllocations = make(map[string]engine.MonthlyAllocation)
	m.ghosts = make(map[string]engine.GhostStaff)
	m.exercises = make(map[string]engine.PlanningExercise)
	m.planningProjects = make(map[string]engine.PlanningProject)
	m.planningRoles = make(map[string]engine.PlanningRole)
}

// Reset clears all data. Dev/demo only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// sortByID keeps list output deterministic regardless of map iteration order.
func sortByID[T any](items []T, id func(T) string) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}

// =============================================================================
// ROLES
// =============================================================================

func (m *Memory) GetRole(_ context.Context, id string) (*engine.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.roles[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) GetRoleByName(_ context.Context, name string) (*engine.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.roles {
		if r.Name == name {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListRoles(_ context.Context) ([]engine.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return sortByID(out, func(r engine.Role) string { return r.ID }), nil
}

func (m *Memory) SaveRole(_ context.Context, role engine.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.ID] = role
	return nil
}

func (m *Memory) DeleteRole(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, id)
	return nil
}

// =============================================================================
// STAFF
// =============================================================================

func (m *Memory) GetStaff(_ context.Context, id string) (*engine.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.staff[id]; ok {
		s.Skills = append([]string(nil), s.Skills...)
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) ListStaff(_ context.Context) ([]engine.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		s.Skills = append([]string(nil), s.Skills...)
		out = append(out, s)
	}
	return sortByID(out, func(s engine.Staff) string { return s.ID }), nil
}

func (m *Memory) ListStaffByRole(_ context.Context, roleID string) ([]engine.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Staff
	for _, s := range m.staff {
		if s.RoleID == roleID {
			s.Skills = append([]string(nil), s.Skills...)
			out = append(out, s)
		}
	}
	return sortByID(out, func(s engine.Staff) string { return s.ID }), nil
}

func (m *Memory) SaveStaff(_ context.Context, staff engine.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[staff.ID] = staff
	return nil
}

// DeleteStaff cascade-deletes the staff member's assignments.
func (m *Memory) DeleteStaff(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.staff, id)
	for aid, a := range m.assignments {
		if a.StaffID == id {
			delete(m.assignments, aid)
		}
	}
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) GetProject(_ context.Context, id string) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListProjects(_ context.Context, filter engine.ProjectFilter) ([]engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := map[engine.ProjectStatus]bool{}
	for _, s := range filter.Statuses {
		statuses[s] = true
	}

	var out []engine.Project
	for _, p := range m.projects {
		if len(statuses) > 0 && !statuses[p.Status] {
			continue
		}
		if filter.ParentProjectID != nil && p.ParentProjectID != *filter.ParentProjectID {
			continue
		}
		out = append(out, p)
	}
	return sortByID(out, func(p engine.Project) string { return p.ID }), nil
}

func (m *Memory) SaveProject(_ context.Context, project engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

// =============================================================================
// PROJECT ROLE RATES
// =============================================================================

func (m *Memory) ListRoleRates(_ context.Context, projectID string) ([]engine.ProjectRoleRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.ProjectRoleRate
	for _, r := range m.roleRates {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return sortByID(out, func(r engine.ProjectRoleRate) string { return r.ID }), nil
}

func (m *Memory) SaveRoleRate(_ context.Context, rate engine.ProjectRoleRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleRates[rate.ID] = rate
	return nil
}

func (m *Memory) DeleteRoleRate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roleRates, id)
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) GetAssignment(_ context.Context, id string) (*engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) ListAssignmentsByProject(_ context.Context, projectID string) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Assignment
	for _, a := range m.assignments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return sortByID(out, func(a engine.Assignment) string { return a.ID }), nil
}

func (m *Memory) ListAssignmentsByStaff(_ context.Context, staffID string) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Assignment
	for _, a := range m.assignments {
		if a.StaffID == staffID {
			out = append(out, a)
		}
	}
	return sortByID(out, func(a engine.Assignment) string { return a.ID }), nil
}

func (m *Memory) ListAssignmentsOverlapping(_ context.Context, staffID string, start, end engine.Date) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Assignment
	for _, a := range m.assignments {
		if a.StaffID == staffID && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return sortByID(out, func(a engine.Assignment) string { return a.ID }), nil
}

func (m *Memory) SaveAssignment(_ context.Context, a engine.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, id)
	for maid, ma := range m.monthlyAllocations {
		if ma.AssignmentID == id {
			delete(m.monthlyAllocations, maid)
		}
	}
	return nil
}

// =============================================================================
// MONTHLY ALLOCATIONS
// =============================================================================

func (m *Memory) ListMonthlyAllocations(_ context.Context, assignmentID string) ([]engine.MonthlyAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.MonthlyAllocation
	for _, ma := range m.monthlyAllocations {
		if ma.AssignmentID == assignmentID {
			out = append(out, ma)
		}
	}
	return sortByID(out, func(ma engine.MonthlyAllocation) string { return ma.Month.Key() }), nil
}

// SaveMonthlyAllocation upserts on (assignment_id, month).
func (m *Memory) SaveMonthlyAllocation(_ context.Context, ma engine.MonthlyAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.monthlyAllocations {
		if existing.AssignmentID == ma.AssignmentID && existing.Month.Equal(ma.Month) {
			delete(m.monthlyAllocations, id)
		}
	}
	m.monthlyAllocations[ma.ID] = ma
	return nil
}

// =============================================================================
// GHOST STAFF
// =============================================================================

func (m *Memory) GetGhostStaff(_ context.Context, id string) (*engine.GhostStaff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.ghosts[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (m *Memory) ListGhostStaffByProject(_ context.Context, projectID string) ([]engine.GhostStaff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.GhostStaff
	for _, g := range m.ghosts {
		if g.ProjectID == projectID {
			out = append(out, g)
		}
	}
	return sortByID(out, func(g engine.GhostStaff) string { return g.ID }), nil
}

func (m *Memory) SaveGhostStaff(_ context.Context, g engine.GhostStaff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ghosts[g.ID] = g
	return nil
}

func (m *Memory) DeleteGhostStaff(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ghosts, id)
	return nil
}

// =============================================================================
// PLANNING EXERCISES
// =============================================================================

func (m *Memory) GetExercise(_ context.Context, id string) (*engine.PlanningExercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ex, ok := m.exercises[id]; ok {
		return &ex, nil
	}
	return nil, nil
}

func (m *Memory) ListExercises(_ context.Context) ([]engine.PlanningExercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.PlanningExercise, 0, len(m.exercises))
	for _, ex := range m.exercises {
		out = append(out, ex)
	}
	return sortByID(out, func(ex engine.PlanningExercise) string { return ex.ID }), nil
}

func (m *Memory) SaveExercise(_ context.Context, ex engine.PlanningExercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exercises[ex.ID] = ex
	return nil
}

// DeleteExercise cascade-deletes the exercise's planning projects and roles.
func (m *Memory) DeleteExercise(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exercises, id)
	for pid, p := range m.planningProjects {
		if p.ExerciseID != id {
			continue
		}
		delete(m.planningProjects, pid)
		for rid, r := range m.planningRoles {
			if r.PlanningProjectID == pid {
				delete(m.planningRoles, rid)
			}
		}
	}
	return nil
}

func (m *Memory) ListPlanningProjects(_ context.Context, exerciseID string) ([]engine.PlanningProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PlanningProject
	for _, p := range m.planningProjects {
		if p.ExerciseID == exerciseID {
			out = append(out, p)
		}
	}
	return sortByID(out, func(p engine.PlanningProject) string { return p.ID }), nil
}

func (m *Memory) SavePlanningProject(_ context.Context, p engine.PlanningProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planningProjects[p.ID] = p
	return nil
}

func (m *Memory) ListPlanningRoles(_ context.Context, planningProjectID string) ([]engine.PlanningRole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PlanningRole
	for _, r := range m.planningRoles {
		if r.PlanningProjectID == planningProjectID {
			out = append(out, r)
		}
	}
	return sortByID(out, func(r engine.PlanningRole) string { return r.ID }), nil
}

func (m *Memory) SavePlanningRole(_ context.Context, r engine.PlanningRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planningRoles[r.ID] = r
	return nil
}
