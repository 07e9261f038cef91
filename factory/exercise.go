/*
Package factory provides JSON to Go planning-exercise conversion.

PURPOSE:
  Converts JSON exercise templates into engine.PlanningExercise,
  PlanningProject, and PlanningRole entities. This enables scenario
  configuration without code changes - planners can define staffing
  scenarios in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can draft scenarios
  - Easy integration with a planning UI
  - Version control for scenario definitions
  - Database storage of scenario templates

JSON SCHEMA:
  {
    "id": "2027-pipeline",
    "name": "2027 Pipeline",
    "description": "Next year's likely project wins",
    "projects": [
      {
        "name": "Harbor Tower",
        "start_date": "2027-03-01",
        "duration_months": 18,
        "location": "Oslo",
        "budget": 4200000,
        "roles": [
          {
            "role": "Site Manager",
            "count": 1,
            "start_month_offset": 0,
            "allocation_percentage": 100,
            "overlap_mode": "conservative"
          },
          {
            "role": "Electrician",
            "count": 4,
            "start_month_offset": 2,
            "end_month_offset": 14,
            "hours_per_week": 40,
            "overlap_mode": "efficient"
          }
        ]
      }
    ]
  }

KEY FEATURES:
  - Validates JSON structure and date formats
  - Sets sensible defaults (100% allocation, 40h weeks, efficient overlap)
  - Resolves role names against a caller-supplied name-to-id map
  - Round-trips back to JSON for template storage

USAGE:
  factory := NewExerciseFactory()

  // Role names in the template resolve against real role ids
  roleIDs := map[string]string{"Site Manager": "r1", "Electrician": "r2"}

  ex, projects, roles, err := factory.ParseExercise(jsonString, roleIDs)

  // Persist and analyze
  store.SaveExercise(ctx, *ex)
  coverage, err := eng.CalculatePlanningCoverage(ctx, ex.ID)

SEE ALSO:
  - engine/types.go: PlanningExercise/PlanningProject/PlanningRole
  - engine/planning.go: coverage analysis and exercise application
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ExerciseJSON is the JSON representation of a planning exercise template.
type ExerciseJSON struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Projects    []ProjectJSON `json:"projects"`
}

// ProjectJSON represents one hypothetical project.
type ProjectJSON struct {
	Name           string     `json:"name"`
	StartDate      string     `json:"start_date"`
	DurationMonths int        `json:"duration_months"`
	Location       string     `json:"location,omitempty"`
	Budget         *float64   `json:"budget,omitempty"`
	Roles          []RoleJSON `json:"roles"`
}

// RoleJSON represents one role requirement on a project.
type RoleJSON struct {
	Role                 string  `json:"role"` // role name, resolved to an id
	Count                int     `json:"count"`
	StartMonthOffset     int     `json:"start_month_offset,omitempty"`
	EndMonthOffset       *int    `json:"end_month_offset,omitempty"` // nil = project duration
	AllocationPercentage float64 `json:"allocation_percentage,omitempty"`
	HoursPerWeek         float64 `json:"hours_per_week,omitempty"`
	OverlapMode          string  `json:"overlap_mode,omitempty"` // efficient, conservative
}

// =============================================================================
// EXERCISE FACTORY
// =============================================================================

// ExerciseFactory converts JSON exercise templates to engine entities.
type ExerciseFactory struct{}

// NewExerciseFactory creates a new exercise factory.
func NewExerciseFactory() *ExerciseFactory {
	return &ExerciseFactory{}
}

// ParseExercise parses a JSON string into a draft exercise with its projects
// and role requirements. roleIDByName maps template role names to real role
// ids; an unknown name is an error.
func (f *ExerciseFactory) ParseExercise(jsonStr string, roleIDByName map[string]string) (*engine.PlanningExercise, []engine.PlanningProject, []engine.PlanningRole, error) {
	var ej ExerciseJSON
	if err := json.Unmarshal([]byte(jsonStr), &ej); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse exercise JSON: %w", err)
	}
	return f.FromJSON(ej, roleIDByName)
}

// FromJSON converts ExerciseJSON to engine entities. Generated ids tie the
// projects to the exercise and the roles to their projects.
func (f *ExerciseFactory) FromJSON(ej ExerciseJSON, roleIDByName map[string]string) (*engine.PlanningExercise, []engine.PlanningProject, []engine.PlanningRole, error) {
	if ej.Name == "" {
		return nil, nil, nil, fmt.Errorf("exercise name is required")
	}
	if len(ej.Projects) == 0 {
		return nil, nil, nil, fmt.Errorf("exercise %q has no projects", ej.Name)
	}

	ex := &engine.PlanningExercise{
		ID:          ej.ID,
		Name:        ej.Name,
		Description: ej.Description,
		Status:      engine.ExerciseDraft,
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}

	var projects []engine.PlanningProject
	var roles []engine.PlanningRole
	for _, pj := range ej.Projects {
		project, err := parseProject(pj, ex.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		projects = append(projects, *project)

		for _, rj := range pj.Roles {
			role, err := parseRole(rj, project, roleIDByName)
			if err != nil {
				return nil, nil, nil, err
			}
			roles = append(roles, *role)
		}
	}
	return ex, projects, roles, nil
}

// ToJSON converts engine entities back to the template form. Role ids map
// back to names via roleNameByID; an unmapped id keeps the raw id.
func (f *ExerciseFactory) ToJSON(ex engine.PlanningExercise, projects []engine.PlanningProject, roles []engine.PlanningRole, roleNameByID map[string]string) ExerciseJSON {
	ej := ExerciseJSON{
		ID:          ex.ID,
		Name:        ex.Name,
		Description: ex.Description,
	}

	rolesByProject := map[string][]engine.PlanningRole{}
	for _, r := range roles {
		rolesByProject[r.PlanningProjectID] = append(rolesByProject[r.PlanningProjectID], r)
	}

	for _, p := range projects {
		pj := ProjectJSON{
			Name:           p.Name,
			StartDate:      p.StartDate.String(),
			DurationMonths: p.DurationMonths,
			Location:       p.Location,
		}
		if p.Budget != nil {
			v, _ := p.Budget.Float64()
			pj.Budget = &v
		}
		for _, r := range rolesByProject[p.ID] {
			name, ok := roleNameByID[r.RoleID]
			if !ok {
				name = r.RoleID
			}
			pj.Roles = append(pj.Roles, RoleJSON{
				Role:                 name,
				Count:                r.Count,
				StartMonthOffset:     r.StartMonthOffset,
				EndMonthOffset:       r.EndMonthOffset,
				AllocationPercentage: r.AllocationPercentage,
				HoursPerWeek:         r.HoursPerWeek,
				OverlapMode:          string(r.OverlapMode),
			})
		}
		ej.Projects = append(ej.Projects, pj)
	}
	return ej
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseProject(pj ProjectJSON, exerciseID string) (*engine.PlanningProject, error) {
	if pj.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	start, err := engine.ParseDate(pj.StartDate)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", pj.Name, err)
	}
	if pj.DurationMonths < 1 {
		return nil, fmt.Errorf("project %q: duration_months must be at least 1", pj.Name)
	}
	if len(pj.Roles) == 0 {
		return nil, fmt.Errorf("project %q has no roles", pj.Name)
	}

	project := &engine.PlanningProject{
		ID:             uuid.NewString(),
		ExerciseID:     exerciseID,
		Name:           pj.Name,
		StartDate:      start,
		DurationMonths: pj.DurationMonths,
		Location:       pj.Location,
	}
	if pj.Budget != nil {
		b := decimal.NewFromFloat(*pj.Budget)
		project.Budget = &b
	}
	return project, nil
}

func parseRole(rj RoleJSON, project *engine.PlanningProject, roleIDByName map[string]string) (*engine.PlanningRole, error) {
	roleID, ok := roleIDByName[rj.Role]
	if !ok {
		return nil, fmt.Errorf("project %q: unknown role %q", project.Name, rj.Role)
	}
	if rj.Count < 1 {
		return nil, fmt.Errorf("project %q role %q: count must be at least 1", project.Name, rj.Role)
	}
	if rj.StartMonthOffset < 0 || rj.StartMonthOffset >= project.DurationMonths {
		return nil, fmt.Errorf("project %q role %q: start_month_offset outside project duration", project.Name, rj.Role)
	}
	if rj.EndMonthOffset != nil && *rj.EndMonthOffset <= rj.StartMonthOffset {
		return nil, fmt.Errorf("project %q role %q: end_month_offset must exceed start_month_offset", project.Name, rj.Role)
	}
	if rj.AllocationPercentage < 0 || rj.AllocationPercentage > 100 {
		return nil, fmt.Errorf("project %q role %q: allocation_percentage must be between 0 and 100", project.Name, rj.Role)
	}

	role := &engine.PlanningRole{
		ID:                   uuid.NewString(),
		PlanningProjectID:    project.ID,
		RoleID:               roleID,
		Count:                rj.Count,
		StartMonthOffset:     rj.StartMonthOffset,
		EndMonthOffset:       rj.EndMonthOffset,
		AllocationPercentage: rj.AllocationPercentage,
		HoursPerWeek:         rj.HoursPerWeek,
		OverlapMode:          parseOverlapMode(rj.OverlapMode),
	}
	if role.AllocationPercentage == 0 {
		role.AllocationPercentage = 100
	}
	if role.HoursPerWeek == 0 {
		role.HoursPerWeek = engine.StandardWeeklyHours
	}
	return role, nil
}

func parseOverlapMode(s string) engine.OverlapMode {
	switch s {
	case "conservative":
		return engine.OverlapConservative
	default:
		return engine.OverlapEfficient
	}
}
