/*
errors.go - Centralized error types for the staffing engine

ERROR CATEGORIES:
  1. NotFound - a referenced entity id does not exist; fatal to the call
  2. Validation - malformed input (dates, percentages, enums); fatal
  3. Advisory conflicts (over-allocation) are NOT errors: they are returned
     as data with can_override=true and never abort a call

There is no partial-failure mode: an aggregation either returns a complete
structure or raises before producing output.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is the base of all missing-entity errors.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the base of all invalid-input errors.
	ErrValidation = errors.New("validation error")

	// ErrProjectUndated is returned when forecasting a project that has no
	// start or end date and no explicit period was supplied.
	ErrProjectUndated = errors.New("project must have start and end dates, or dates must be provided")

	// ErrRoleInUse is returned when deleting a role still referenced by staff.
	ErrRoleInUse = errors.New("role is referenced by staff and cannot be deleted")

	// ErrStaffHasActiveAssignments blocks staff deletion while any
	// assignment is still active.
	ErrStaffHasActiveAssignments = errors.New("staff member has active assignments")

	// ErrGhostAlreadyReplaced is returned when replacing a ghost twice.
	ErrGhostAlreadyReplaced = errors.New("ghost staff entry already replaced")

	// ErrExerciseAlreadyApplied is returned when materializing an exercise
	// that was applied before.
	ErrExerciseAlreadyApplied = errors.New("planning exercise already applied")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Entity string // "staff", "project", "role", "assignment", "exercise", "ghost_staff"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError carries the offending field and a message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrProjectUndated) ||
		errors.Is(err, ErrRoleInUse) ||
		errors.Is(err, ErrStaffHasActiveAssignments) ||
		errors.Is(err, ErrGhostAlreadyReplaced) ||
		errors.Is(err, ErrExerciseAlreadyApplied)
}

func notFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

func invalid(field, message string) error { return &ValidationError{Field: field, Message: message} }
