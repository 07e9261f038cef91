package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

var testRoles = map[string]string{
	"Site Manager": "role-sm",
	"Electrician":  "role-el",
	"Carpenter":    "role-cp",
}

func validTemplate() ExerciseJSON {
	end := 6
	return ExerciseJSON{
		Name:        "Next Year Pipeline",
		Description: "Candidate sites under bid review",
		Projects: []ProjectJSON{
			{
				Name:           "Riverside Apartments",
				StartDate:      "2025-03-01",
				DurationMonths: 8,
				Location:       "Riverside",
				Roles: []RoleJSON{
					{Role: "Site Manager", Count: 1},
					{Role: "Electrician", Count: 2, StartMonthOffset: 2, EndMonthOffset: &end},
					{Role: "Carpenter", Count: 3, AllocationPercentage: 75, OverlapMode: "conservative"},
				},
			},
		},
	}
}

func TestFromJSON_ValidTemplate(t *testing.T) {
	f := NewExerciseFactory()
	ex, projects, roles, err := f.FromJSON(validTemplate(), testRoles)
	require.NoError(t, err)

	assert.NotEmpty(t, ex.ID, "exercise id should be generated")
	assert.Equal(t, "Next Year Pipeline", ex.Name)
	assert.Equal(t, engine.ExerciseDraft, ex.Status)

	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, ex.ID, p.ExerciseID)
	assert.Equal(t, "2025-03-01", p.StartDate.String())
	assert.Equal(t, 8, p.DurationMonths)

	require.Len(t, roles, 3)
	for _, r := range roles {
		assert.Equal(t, p.ID, r.PlanningProjectID)
	}

	// Defaults: pct 100, standard hours, efficient mode.
	sm := roles[0]
	assert.Equal(t, "role-sm", sm.RoleID)
	assert.Equal(t, 100.0, sm.AllocationPercentage)
	assert.Equal(t, engine.StandardWeeklyHours, sm.HoursPerWeek)
	assert.Equal(t, engine.OverlapEfficient, sm.OverlapMode)

	el := roles[1]
	assert.Equal(t, 2, el.StartMonthOffset)
	require.NotNil(t, el.EndMonthOffset)
	assert.Equal(t, 6, *el.EndMonthOffset)

	cp := roles[2]
	assert.Equal(t, 75.0, cp.AllocationPercentage)
	assert.Equal(t, engine.OverlapConservative, cp.OverlapMode)
}

func TestFromJSON_ValidationErrors(t *testing.T) {
	f := NewExerciseFactory()

	mutate := func(fn func(*ExerciseJSON)) ExerciseJSON {
		ej := validTemplate()
		fn(&ej)
		return ej
	}

	cases := map[string]ExerciseJSON{
		"missing name":       mutate(func(ej *ExerciseJSON) { ej.Name = "" }),
		"no projects":        mutate(func(ej *ExerciseJSON) { ej.Projects = nil }),
		"bad start date":     mutate(func(ej *ExerciseJSON) { ej.Projects[0].StartDate = "March 2025" }),
		"zero duration":      mutate(func(ej *ExerciseJSON) { ej.Projects[0].DurationMonths = 0 }),
		"no roles":           mutate(func(ej *ExerciseJSON) { ej.Projects[0].Roles = nil }),
		"unknown role":       mutate(func(ej *ExerciseJSON) { ej.Projects[0].Roles[0].Role = "Crane Operator" }),
		"zero count":         mutate(func(ej *ExerciseJSON) { ej.Projects[0].Roles[0].Count = 0 }),
		"offset past end":    mutate(func(ej *ExerciseJSON) { ej.Projects[0].Roles[0].StartMonthOffset = 8 }),
		"inverted offsets":   mutate(func(ej *ExerciseJSON) { *ej.Projects[0].Roles[1].EndMonthOffset = 1 }),
		"pct out of bounds":  mutate(func(ej *ExerciseJSON) { ej.Projects[0].Roles[0].AllocationPercentage = 150 }),
	}
	for name, ej := range cases {
		_, _, _, err := f.FromJSON(ej, testRoles)
		assert.Error(t, err, name)
	}
}

func TestParseExercise_RawJSON(t *testing.T) {
	f := NewExerciseFactory()
	jsonStr := `{
		"name": "Q3 Bids",
		"projects": [{
			"name": "School Annex",
			"start_date": "2025-08-01",
			"duration_months": 5,
			"budget": 250000,
			"roles": [{"role": "Carpenter", "count": 2, "overlap_mode": "conservative"}]
		}]
	}`

	ex, projects, roles, err := f.ParseExercise(jsonStr, testRoles)
	require.NoError(t, err)
	assert.Equal(t, "Q3 Bids", ex.Name)
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].Budget)
	assert.Equal(t, "250000", projects[0].Budget.String())
	require.Len(t, roles, 1)
	assert.Equal(t, engine.OverlapConservative, roles[0].OverlapMode)
}

func TestParseExercise_MalformedJSON(t *testing.T) {
	f := NewExerciseFactory()
	_, _, _, err := f.ParseExercise(`{"name": `, testRoles)
	assert.Error(t, err)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := NewExerciseFactory()
	ex, projects, roles, err := f.FromJSON(validTemplate(), testRoles)
	require.NoError(t, err)

	nameByID := map[string]string{}
	for name, id := range testRoles {
		nameByID[id] = name
	}
	out := f.ToJSON(*ex, projects, roles, nameByID)

	assert.Equal(t, ex.ID, out.ID)
	assert.Equal(t, "Next Year Pipeline", out.Name)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, "2025-03-01", out.Projects[0].StartDate)
	require.Len(t, out.Projects[0].Roles, 3)
	assert.Equal(t, "Site Manager", out.Projects[0].Roles[0].Role)
	// Parsing defaults survive the round trip as explicit values.
	assert.Equal(t, 100.0, out.Projects[0].Roles[0].AllocationPercentage)
}
