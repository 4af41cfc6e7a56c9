package scheduling

import "errors"

var (
	// ErrConflict means the requested interval overlaps an active appointment.
	ErrConflict = errors.New("appointment time slot conflict")
	// ErrNotFound means no appointment or catalog service matches the id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor's role is not permitted for the operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError covers missing or malformed input, failed numeric
// validation, unresolvable service references and empty patches.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}
