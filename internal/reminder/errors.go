package reminder

import "errors"

// Error taxonomy for reminder operations. Handlers translate these into
// plain-language replies; everything else is logged and degraded.
var (
	// ErrValidation marks bad user input: out-of-range lead minutes,
	// unparsable times, or a missing timezone.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks operations on a missing or foreign reminder.
	ErrNotFound = errors.New("reminder not found")

	// ErrStorage marks persistence failures. On write paths the in-memory
	// job is never armed when storage fails.
	ErrStorage = errors.New("storage error")
)
