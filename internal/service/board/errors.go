// Package board implements the task board: column ordering, task
// mutations, timers, recurrence spawning, discussions and archiving.
package board

import "errors"

// Sentinel errors used across the board service. Callers check these
// with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrForbidden indicates the actor may not act on this task.
	// A task can be mutated by its owner, or by an admin.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("not allowed to act on this task")

	// ErrConflict indicates the task changed underneath the caller,
	// for example a move whose source column no longer matches, or a
	// timer operation against the wrong timer state.
	// API layer should map this to HTTP 409 Conflict.
	ErrConflict = errors.New("task state conflict")

	// ErrInvalidRequest indicates the request payload is structurally
	// valid but semantically unacceptable (unknown dependency IDs,
	// dependency on another owner's task, too many dependencies, ...).
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidRequest = errors.New("invalid request")
)
