package service

import (
	"errors"
	"fmt"
)

// Terminal, caller-visible errors of the cash engine. None of these are
// retried internally — they reflect a logical precondition failure or a
// caller input error, not a transient fault. Handlers map them to HTTP
// status codes with errors.Is.
var (
	// ErrSessionConflict: another open session already exists.
	ErrSessionConflict = errors.New("a cash session is already open")
	// ErrSessionNotFound: no session with the given id.
	ErrSessionNotFound = errors.New("cash session not found")
	// ErrMovementNotFound: movement absent, or owned by a different session.
	ErrMovementNotFound = errors.New("movement not found")
	// ErrAlreadyClosed: close attempted on a closed session.
	ErrAlreadyClosed = errors.New("cash session is already closed")
	// ErrForbidden: close attempted by an operator who did not open the session.
	ErrForbidden = errors.New("only the opening operator may close this session")
	// ErrSessionClosed: movement mutation attempted on a closed session.
	ErrSessionClosed = errors.New("cash session is closed")
	// ErrValidation: bad amount / description / date / export format.
	// Wrap with validationf to attach the specific reason.
	ErrValidation = errors.New("validation error")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
