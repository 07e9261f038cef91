/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists the full staffing model (roles, staff, projects, rates,
  assignments, ghost staff, planning exercises) using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  roles:                          Job functions with internal cost and default rate
  staff:                          People, each holding one role
  projects:                       Jobs and folders (self-referencing hierarchy)
  project_role_rates:             Per-project billable rate overrides
  assignments:                    Staff-to-project commitments with allocation policy
  assignment_monthly_allocations: Per-month percentages (percentage_monthly)
  ghost_staff:                    Placeholders for not-yet-hired positions
  planning_*:                     Sandbox planning exercises

INDEXES:
  Critical indexes for performance:
  - idx_assignments_staff_dates: the (staff_id, start_date, end_date) range
    query behind split_by_projects and over-allocation detection (hot path)
  - idx_projects_parent: folder hierarchy walks
  - idx_rates_project_role: rate resolution at each ancestry step

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/staffing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
)

const dateLayout = "2006-01-02"

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Roles
	CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		internal_hourly_cost TEXT NOT NULL,
		default_billable_rate TEXT,
		created_at TEXT NOT NULL
	);

	-- Staff
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role_id TEXT NOT NULL,
		internal_hourly_cost TEXT NOT NULL,
		availability_start TEXT,
		availability_end TEXT,
		skills_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_staff_role
		ON staff(role_id);

	-- Projects (jobs and folders; self-referencing hierarchy)
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		status TEXT NOT NULL DEFAULT 'planning',
		budget TEXT,
		location TEXT NOT NULL DEFAULT '',
		is_folder BOOLEAN NOT NULL DEFAULT FALSE,
		parent_project_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_parent
		ON projects(parent_project_id);
	CREATE INDEX IF NOT EXISTS idx_projects_status
		ON projects(status);

	-- Per-project billable rate overrides
	CREATE TABLE IF NOT EXISTS project_role_rates (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		billable_rate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(project_id, role_id)
	);

	CREATE INDEX IF NOT EXISTS idx_rates_project_role
		ON project_role_rates(project_id, role_id);

	-- Assignments
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		hours_per_week REAL NOT NULL,
		role_on_project TEXT NOT NULL DEFAULT '',
		allocation_type TEXT NOT NULL DEFAULT 'full',
		allocation_percentage REAL NOT NULL DEFAULT 100,
		allow_over_allocation BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: range-query index for split_by_projects and over-allocation
	-- (all assignments of a staff member intersecting a window)
	CREATE INDEX IF NOT EXISTS idx_assignments_staff_dates
		ON assignments(staff_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_assignments_project
		ON assignments(project_id);

	-- Per-month allocation percentages (percentage_monthly assignments)
	CREATE TABLE IF NOT EXISTS assignment_monthly_allocations (
		id TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL,
		month TEXT NOT NULL,
		percentage REAL NOT NULL,
		UNIQUE(assignment_id, month)
	);

	CREATE INDEX IF NOT EXISTS idx_monthly_allocations_assignment
		ON assignment_monthly_allocations(assignment_id);

	-- Ghost staff (not-yet-hired placeholders)
	CREATE TABLE IF NOT EXISTS ghost_staff (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		hours_per_week REAL NOT NULL,
		allocation_percentage REAL NOT NULL DEFAULT 100,
		replaced_by_staff_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ghost_staff_project
		ON ghost_staff(project_id);

	-- Planning exercises
	CREATE TABLE IF NOT EXISTS planning_exercises (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS planning_projects (
		id TEXT PRIMARY KEY,
		exercise_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		budget TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planning_projects_exercise
		ON planning_projects(exercise_id);

	CREATE TABLE IF NOT EXISTS planning_roles (
		id TEXT PRIMARY KEY,
		planning_project_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		head_count INTEGER NOT NULL,
		start_month_offset INTEGER NOT NULL DEFAULT 0,
		end_month_offset INTEGER,
		allocation_percentage REAL NOT NULL DEFAULT 100,
		hours_per_week REAL NOT NULL DEFAULT 40,
		overlap_mode TEXT NOT NULL DEFAULT 'efficient',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planning_roles_project
		ON planning_roles(planning_project_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROLES
// =============================================================================

const roleColumns = "id, name, internal_hourly_cost, default_billable_rate, created_at"

func (s *Store) GetRole(ctx context.Context, id string) (*engine.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id = ?", id)
	return scanRole(row)
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*engine.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE name = ?", name)
	return scanRole(row)
}

func (s *Store) ListRoles(ctx context.Context) ([]engine.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+roleColumns+" FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []engine.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

func (s *Store) SaveRole(ctx context.Context, role engine.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO roles (id, name, internal_hourly_cost, default_billable_rate, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			internal_hourly_cost = excluded.internal_hourly_cost,
			default_billable_rate = excluded.default_billable_rate
	`

	var defaultRate *string
	if role.DefaultBillableRate != nil {
		v := role.DefaultBillableRate.String()
		defaultRate = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		role.ID, role.Name, role.InternalHourlyCost.String(), defaultRate,
		createdAtOrNow(role.CreatedAt),
	)
	return err
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	return err
}

func scanRole(row scanner) (*engine.Role, error) {
	var (
		r           engine.Role
		cost        string
		defaultRate sql.NullString
		createdAt   string
	)
	err := row.Scan(&r.ID, &r.Name, &cost, &defaultRate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan role: %w", err)
	}

	r.InternalHourlyCost = parseDecimal(cost)
	if defaultRate.Valid {
		d := parseDecimal(defaultRate.String)
		r.DefaultBillableRate = &d
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// STAFF
// =============================================================================

const staffColumns = "id, name, role_id, internal_hourly_cost, availability_start, availability_end, skills_json, created_at"

func (s *Store) GetStaff(ctx context.Context, id string) (*engine.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM staff WHERE id = ?", id)
	return scanStaff(row)
}

func (s *Store) ListStaff(ctx context.Context) ([]engine.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryStaff(ctx, "SELECT "+staffColumns+" FROM staff ORDER BY name")
}

func (s *Store) ListStaffByRole(ctx context.Context, roleID string) ([]engine.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryStaff(ctx,
		"SELECT "+staffColumns+" FROM staff WHERE role_id = ? ORDER BY name", roleID)
}

func (s *Store) queryStaff(ctx context.Context, query string, args ...any) ([]engine.Staff, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []engine.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, *st)
	}
	return staff, rows.Err()
}

func (s *Store) SaveStaff(ctx context.Context, staff engine.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO staff (id, name, role_id, internal_hourly_cost, availability_start, availability_end, skills_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role_id = excluded.role_id,
			internal_hourly_cost = excluded.internal_hourly_cost,
			availability_start = excluded.availability_start,
			availability_end = excluded.availability_end,
			skills_json = excluded.skills_json
	`

	skillsJSON, _ := json.Marshal(staff.Skills)
	_, err := s.db.ExecContext(ctx, query,
		staff.ID, staff.Name, staff.RoleID, staff.InternalHourlyCost.String(),
		nullDate(staff.AvailabilityStart), nullDate(staff.AvailabilityEnd),
		string(skillsJSON), createdAtOrNow(staff.CreatedAt),
	)
	return err
}

// DeleteStaff cascade-deletes the staff member's assignments and their
// monthly allocation rows.
func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignment_monthly_allocations
		 WHERE assignment_id IN (SELECT id FROM assignments WHERE staff_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE staff_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM staff WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanStaff(row scanner) (*engine.Staff, error) {
	var (
		st         engine.Staff
		cost       string
		availStart sql.NullString
		availEnd   sql.NullString
		skillsJSON sql.NullString
		createdAt  string
	)
	err := row.Scan(&st.ID, &st.Name, &st.RoleID, &cost, &availStart, &availEnd, &skillsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff: %w", err)
	}

	st.InternalHourlyCost = parseDecimal(cost)
	st.AvailabilityStart = parseNullDate(availStart)
	st.AvailabilityEnd = parseNullDate(availEnd)
	if skillsJSON.Valid && skillsJSON.String != "" {
		json.Unmarshal([]byte(skillsJSON.String), &st.Skills)
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &st, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

const projectColumns = "id, name, start_date, end_date, status, budget, location, is_folder, parent_project_id, created_at"

func (s *Store) GetProject(ctx context.Context, id string) (*engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context, filter engine.ProjectFilter) ([]engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + projectColumns + " FROM projects"
	var conds []string
	var args []any
	if len(filter.Statuses) > 0 {
		placeholders := ""
		for i, status := range filter.Statuses {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, string(status))
		}
		conds = append(conds, "status IN ("+placeholders+")")
	}
	if filter.ParentProjectID != nil {
		conds = append(conds, "parent_project_id = ?")
		args = append(args, *filter.ParentProjectID)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []engine.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *Store) SaveProject(ctx context.Context, project engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, name, start_date, end_date, status, budget, location, is_folder, parent_project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			budget = excluded.budget,
			location = excluded.location,
			is_folder = excluded.is_folder,
			parent_project_id = excluded.parent_project_id
	`

	var budget *string
	if project.Budget != nil {
		v := project.Budget.String()
		budget = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		project.ID, project.Name,
		nullDate(project.StartDate), nullDate(project.EndDate),
		string(project.Status), budget, project.Location,
		project.IsFolder, project.ParentProjectID,
		createdAtOrNow(project.CreatedAt),
	)
	return err
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func scanProject(row scanner) (*engine.Project, error) {
	var (
		p         engine.Project
		startDate sql.NullString
		endDate   sql.NullString
		status    string
		budget    sql.NullString
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Name, &startDate, &endDate, &status, &budget,
		&p.Location, &p.IsFolder, &p.ParentProjectID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.StartDate = parseNullDate(startDate)
	p.EndDate = parseNullDate(endDate)
	p.Status = engine.ProjectStatus(status)
	if budget.Valid {
		b := parseDecimal(budget.String)
		p.Budget = &b
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// =============================================================================
// PROJECT ROLE RATES
// =============================================================================

func (s *Store) ListRoleRates(ctx context.Context, projectID string) ([]engine.ProjectRoleRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, role_id, billable_rate, created_at
		 FROM project_role_rates WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []engine.ProjectRoleRate
	for rows.Next() {
		var (
			r         engine.ProjectRoleRate
			rate      string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.RoleID, &rate, &createdAt); err != nil {
			return nil, err
		}
		r.BillableRate = parseDecimal(rate)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// SaveRoleRate upserts on (project_id, role_id).
func (s *Store) SaveRoleRate(ctx context.Context, rate engine.ProjectRoleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO project_role_rates (id, project_id, role_id, billable_rate, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, role_id) DO UPDATE SET
			billable_rate = excluded.billable_rate
	`

	_, err := s.db.ExecContext(ctx, query,
		rate.ID, rate.ProjectID, rate.RoleID, rate.BillableRate.String(),
		createdAtOrNow(rate.CreatedAt),
	)
	return err
}

func (s *Store) DeleteRoleRate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM project_role_rates WHERE id = ?", id)
	return err
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

const assignmentColumns = "id, staff_id, project_id, start_date, end_date, hours_per_week, role_on_project, allocation_type, allocation_percentage, allow_over_allocation, created_at"

func (s *Store) GetAssignment(ctx context.Context, id string) (*engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id)
	return scanAssignment(row)
}

func (s *Store) ListAssignmentsByProject(ctx context.Context, projectID string) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE project_id = ? ORDER BY start_date, id",
		projectID)
}

func (s *Store) ListAssignmentsByStaff(ctx context.Context, staffID string) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE staff_id = ? ORDER BY start_date, id",
		staffID)
}

// ListAssignmentsOverlapping is the range query behind split_by_projects and
// over-allocation detection. Dates are stored as YYYY-MM-DD text, so string
// comparison matches date comparison.
func (s *Store) ListAssignmentsOverlapping(ctx context.Context, staffID string, start, end engine.Date) ([]engine.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE staff_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date, id`,
		staffID, end.String(), start.String())
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]engine.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []engine.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *Store) SaveAssignment(ctx context.Context, a engine.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO assignments (id, staff_id, project_id, start_date, end_date, hours_per_week, role_on_project, allocation_type, allocation_percentage, allow_over_allocation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			staff_id = excluded.staff_id,
			project_id = excluded.project_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			hours_per_week = excluded.hours_per_week,
			role_on_project = excluded.role_on_project,
			allocation_type = excluded.allocation_type,
			allocation_percentage = excluded.allocation_percentage,
			allow_over_allocation = excluded.allow_over_allocation
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.StaffID, a.ProjectID,
		a.StartDate.String(), a.EndDate.String(),
		a.HoursPerWeek, a.RoleOnProject,
		string(a.AllocationType), a.AllocationPercentage, a.AllowOverAllocation,
		createdAtOrNow(a.CreatedAt),
	)
	return err
}

// DeleteAssignment also removes the assignment's monthly allocation rows.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM assignment_monthly_allocations WHERE assignment_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanAssignment(row scanner) (*engine.Assignment, error) {
	var (
		a         engine.Assignment
		startDate string
		endDate   string
		allocType string
		createdAt string
	)
	err := row.Scan(&a.ID, &a.StaffID, &a.ProjectID, &startDate, &endDate,
		&a.HoursPerWeek, &a.RoleOnProject, &allocType, &a.AllocationPercentage,
		&a.AllowOverAllocation, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	a.StartDate, _ = engine.ParseDate(startDate)
	a.EndDate, _ = engine.ParseDate(endDate)
	a.AllocationType = engine.AllocationType(allocType)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// =============================================================================
// MONTHLY ALLOCATIONS
// =============================================================================

func (s *Store) ListMonthlyAllocations(ctx context.Context, assignmentID string) ([]engine.MonthlyAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assignment_id, month, percentage
		 FROM assignment_monthly_allocations WHERE assignment_id = ? ORDER BY month`,
		assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []engine.MonthlyAllocation
	for rows.Next() {
		var (
			ma    engine.MonthlyAllocation
			month string
		)
		if err := rows.Scan(&ma.ID, &ma.AssignmentID, &month, &ma.Percentage); err != nil {
			return nil, err
		}
		ma.Month, _ = engine.ParseMonth(month)
		allocations = append(allocations, ma)
	}
	return allocations, rows.Err()
}

// SaveMonthlyAllocation upserts on (assignment_id, month).
func (s *Store) SaveMonthlyAllocation(ctx context.Context, ma engine.MonthlyAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO assignment_monthly_allocations (id, assignment_id, month, percentage)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(assignment_id, month) DO UPDATE SET
			percentage = excluded.percentage
	`

	_, err := s.db.ExecContext(ctx, query,
		ma.ID, ma.AssignmentID, ma.Month.Key(), ma.Percentage)
	return err
}

// =============================================================================
// GHOST STAFF
// =============================================================================

const ghostColumns = "id, project_id, role_id, name, start_date, end_date, hours_per_week, allocation_percentage, replaced_by_staff_id, created_at"

func (s *Store) GetGhostStaff(ctx context.Context, id string) (*engine.GhostStaff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT "+ghostColumns+" FROM ghost_staff WHERE id = ?", id)
	return scanGhost(row)
}

func (s *Store) ListGhostStaffByProject(ctx context.Context, projectID string) ([]engine.GhostStaff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ghostColumns+" FROM ghost_staff WHERE project_id = ? ORDER BY name", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ghosts []engine.GhostStaff
	for rows.Next() {
		g, err := scanGhost(rows)
		if err != nil {
			return nil, err
		}
		ghosts = append(ghosts, *g)
	}
	return ghosts, rows.Err()
}

func (s *Store) SaveGhostStaff(ctx context.Context, g engine.GhostStaff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO ghost_staff (id, project_id, role_id, name, start_date, end_date, hours_per_week, allocation_percentage, replaced_by_staff_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			role_id = excluded.role_id,
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			hours_per_week = excluded.hours_per_week,
			allocation_percentage = excluded.allocation_percentage,
			replaced_by_staff_id = excluded.replaced_by_staff_id
	`

	_, err := s.db.ExecContext(ctx, query,
		g.ID, g.ProjectID, g.RoleID, g.Name,
		g.StartDate.String(), g.EndDate.String(),
		g.HoursPerWeek, g.AllocationPercentage, g.ReplacedByStaffID,
		createdAtOrNow(g.CreatedAt),
	)
	return err
}

func (s *Store) DeleteGhostStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM ghost_staff WHERE id = ?", id)
	return err
}

func scanGhost(row scanner) (*engine.GhostStaff, error) {
	var (
		g         engine.GhostStaff
		startDate string
		endDate   string
		createdAt string
	)
	err := row.Scan(&g.ID, &g.ProjectID, &g.RoleID, &g.Name, &startDate, &endDate,
		&g.HoursPerWeek, &g.AllocationPercentage, &g.ReplacedByStaffID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ghost staff: %w", err)
	}

	g.StartDate, _ = engine.ParseDate(startDate)
	g.EndDate, _ = engine.ParseDate(endDate)
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &g, nil
}

// =============================================================================
// PLANNING EXERCISES
// =============================================================================

func (s *Store) GetExercise(ctx context.Context, id string) (*engine.PlanningExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, status, created_at FROM planning_exercises WHERE id = ?", id)
	return scanExercise(row)
}

func (s *Store) ListExercises(ctx context.Context) ([]engine.PlanningExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, status, created_at FROM planning_exercises ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []engine.PlanningExercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *ex)
	}
	return exercises, rows.Err()
}

func (s *Store) SaveExercise(ctx context.Context, ex engine.PlanningExercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO planning_exercises (id, name, description, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		ex.ID, ex.Name, ex.Description, string(ex.Status),
		createdAtOrNow(ex.CreatedAt),
	)
	return err
}

// DeleteExercise cascade-deletes the exercise's planning projects and roles.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM planning_roles
		 WHERE planning_project_id IN (SELECT id FROM planning_projects WHERE exercise_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM planning_projects WHERE exercise_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM planning_exercises WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanExercise(row scanner) (*engine.PlanningExercise, error) {
	var (
		ex        engine.PlanningExercise
		status    string
		createdAt string
	)
	err := row.Scan(&ex.ID, &ex.Name, &ex.Description, &status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan planning exercise: %w", err)
	}

	ex.Status = engine.ExerciseStatus(status)
	ex.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ex, nil
}

func (s *Store) ListPlanningProjects(ctx context.Context, exerciseID string) ([]engine.PlanningProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise_id, name, start_date, duration_months, location, budget, created_at
		 FROM planning_projects WHERE exercise_id = ? ORDER BY start_date, id`, exerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []engine.PlanningProject
	for rows.Next() {
		var (
			p         engine.PlanningProject
			startDate string
			budget    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.ExerciseID, &p.Name, &startDate,
			&p.DurationMonths, &p.Location, &budget, &createdAt); err != nil {
			return nil, err
		}
		p.StartDate, _ = engine.ParseDate(startDate)
		if budget.Valid {
			b := parseDecimal(budget.String)
			p.Budget = &b
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) SavePlanningProject(ctx context.Context, p engine.PlanningProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO planning_projects (id, exercise_id, name, start_date, duration_months, location, budget, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			duration_months = excluded.duration_months,
			location = excluded.location,
			budget = excluded.budget
	`

	var budget *string
	if p.Budget != nil {
		v := p.Budget.String()
		budget = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.ExerciseID, p.Name, p.StartDate.String(),
		p.DurationMonths, p.Location, budget,
		createdAtOrNow(p.CreatedAt),
	)
	return err
}

func (s *Store) ListPlanningRoles(ctx context.Context, planningProjectID string) ([]engine.PlanningRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, planning_project_id, role_id, head_count, start_month_offset, end_month_offset, allocation_percentage, hours_per_week, overlap_mode, created_at
		 FROM planning_roles WHERE planning_project_id = ? ORDER BY start_month_offset, id`,
		planningProjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []engine.PlanningRole
	for rows.Next() {
		var (
			r         engine.PlanningRole
			endOffset sql.NullInt64
			mode      string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.PlanningProjectID, &r.RoleID, &r.Count,
			&r.StartMonthOffset, &endOffset, &r.AllocationPercentage,
			&r.HoursPerWeek, &mode, &createdAt); err != nil {
			return nil, err
		}
		if endOffset.Valid {
			v := int(endOffset.Int64)
			r.EndMonthOffset = &v
		}
		r.OverlapMode = engine.OverlapMode(mode)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *Store) SavePlanningRole(ctx context.Context, r engine.PlanningRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO planning_roles (id, planning_project_id, role_id, head_count, start_month_offset, end_month_offset, allocation_percentage, hours_per_week, overlap_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			head_count = excluded.head_count,
			start_month_offset = excluded.start_month_offset,
			end_month_offset = excluded.end_month_offset,
			allocation_percentage = excluded.allocation_percentage,
			hours_per_week = excluded.hours_per_week,
			overlap_mode = excluded.overlap_mode
	`

	var endOffset *int
	if r.EndMonthOffset != nil {
		endOffset = r.EndMonthOffset
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.PlanningProjectID, r.RoleID, r.Count,
		r.StartMonthOffset, endOffset, r.AllocationPercentage,
		r.HoursPerWeek, string(r.OverlapMode),
		createdAtOrNow(r.CreatedAt),
	)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"assignment_monthly_allocations", "assignments", "ghost_staff",
		"project_role_rates", "projects", "staff", "roles",
		"planning_roles", "planning_projects", "planning_exercises",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func parseDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func nullDate(d *engine.Date) *string {
	if d == nil {
		return nil
	}
	v := d.String()
	return &v
}

func parseNullDate(s sql.NullString) *engine.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := engine.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func createdAtOrNow(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format(time.RFC3339)
}
