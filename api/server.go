/*
server.go - HTTP router and middleware setup

PURPOSE:
  Wires all API handlers into a chi router with logging, panic recovery,
  request IDs, and CORS for local frontend development.

ROUTE GROUPS:
  /api/roles           Role catalog
  /api/staff           Staff and per-person analytics
  /api/projects        Projects, folders, rates, forecasts
  /api/assignments     Assignments and monthly allocation curves
  /api/ghost-staff     Placeholder staff
  /api/forecast        Organization-wide forecast
  /api/overallocations Organization-wide conflict roster
  /api/suggestions     Candidate ranking and hiring gaps
  /api/planning        Planning exercises
  /api/scenarios       Demo data loaders

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the full API router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.SaveRole)
			r.Get("/{id}", h.GetRole)
			r.Delete("/{id}", h.DeleteRole)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.SaveStaff)
			r.Get("/{id}", h.GetStaff)
			r.Delete("/{id}", h.DeleteStaff)
			r.Get("/{id}/timeline", h.GetStaffTimeline)
			r.Get("/{id}/conflicts", h.GetStaffConflicts)
			r.Get("/{id}/capacity", h.GetStaffCapacity)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.SaveProject)
			r.Get("/{id}", h.GetProject)
			r.Delete("/{id}", h.DeleteProject)
			r.Get("/{id}/forecast", h.GetProjectForecast)
			r.Get("/{id}/cost", h.GetProjectCost)
			r.Get("/{id}/gaps", h.GetProjectGaps)
			r.Get("/{id}/report", h.GetProjectReport)
			r.Post("/{id}/simulate", h.SimulateProject)
			r.Get("/{id}/rates", h.ListProjectRates)
			r.Post("/{id}/rates", h.SaveProjectRate)
			r.Get("/{id}/rates/{roleID}/effective", h.GetEffectiveRate)
			r.Get("/{id}/assignments", h.ListProjectAssignments)
			r.Get("/{id}/ghost-staff", h.ListProjectGhostStaff)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.SaveAssignment)
			r.Post("/validate", h.ValidateAssignment)
			r.Get("/{id}", h.GetAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
			r.Get("/{id}/monthly-allocations", h.ListMonthlyAllocations)
			r.Post("/{id}/monthly-allocations", h.SaveMonthlyAllocation)
		})

		r.Route("/ghost-staff", func(r chi.Router) {
			r.Post("/", h.SaveGhostStaff)
			r.Delete("/{id}", h.DeleteGhostStaff)
			r.Post("/{id}/replace", h.ReplaceGhostStaff)
		})

		r.Get("/forecast/organization", h.GetOrganizationForecast)
		r.Get("/overallocations", h.GetOrganizationConflicts)

		r.Route("/suggestions", func(r chi.Router) {
			r.Post("/", h.SuggestStaff)
			r.Post("/new-hires", h.FlagNewHireNeeds)
		})

		r.Route("/planning", func(r chi.Router) {
			r.Route("/exercises", func(r chi.Router) {
				r.Get("/", h.ListExercises)
				r.Post("/", h.CreateExercise)
				r.Delete("/{id}", h.DeleteExercise)
				r.Get("/{id}/coverage", h.GetExerciseCoverage)
				r.Get("/{id}/minimum-staff", h.GetExerciseMinimumStaff)
				r.Post("/{id}/apply", h.ApplyExercise)
			})
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Minimal landing page so hitting the root in a browser shows something
	// useful instead of a 404.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Staffing Engine</title></head>
<body>
<h1>Staffing Engine API</h1>
<p>The API is served under <code>/api</code>. Try <a href="/api/roles">/api/roles</a>.</p>
<p>Load demo data with <code>POST /api/scenarios/load</code>.</p>
</body>
</html>`))
	})

	return r
}
