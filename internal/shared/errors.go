package shared

import "errors"

// Error kinds shared across modules. Domain packages define their own
// sentinels and handlers translate them; these cover the generic cases.
var (
	// ErrNotFound indicates the entity does not exist for the caller's
	// tenant. Cross-tenant rows deliberately surface as this error.
	ErrNotFound = errors.New("shared: not found")
	// ErrConflict indicates the entity is in a state that forbids the
	// requested transition.
	ErrConflict = errors.New("shared: conflict")
)
