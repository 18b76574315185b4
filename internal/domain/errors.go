package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, capacity below member count).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user's capability set for a trip
// does not permit the attempted operation.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a state-machine precondition is violated:
// responding to a membership that is no longer REQUESTED, or filing a join
// request while another live request exists. A Conflict on respond means
// "someone already handled it", not an application error.
// Handlers should map this to HTTP 409 with code "conflict".
var ErrConflict = errors.New("conflict")

// ErrCapacityExceeded is returned when approving a join request would push a
// trip past its max_people limit. The losing side of two approvals racing for
// the last slot receives this error.
// Handlers should map this to HTTP 409 with code "capacity_exceeded".
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrTransient marks a network-level or timeout failure where the outcome of
// the operation is unknown. Callers recover by re-fetching authoritative
// state, never by blindly resending the same mutation.
var ErrTransient = errors.New("transient failure")
