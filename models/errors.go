package models

import "errors"

// Error taxonomy shared across the planner core. Handlers map these onto
// status codes; nothing here is fatal to the process.
var (
	ErrSessionNotFound      = errors.New("session not found or expired")
	ErrDayNotExpanded       = errors.New("day has not been expanded yet")
	ErrOutOfRangeDay        = errors.New("day number outside the trip duration")
	ErrInvalidTransition    = errors.New("action not valid in the current workflow state")
	ErrCollaboratorFailure  = errors.New("assistant backend failed")
	ErrValidation           = errors.New("invalid request")
	ErrNoSelectedActivities = errors.New("select at least one activity before searching")
)
