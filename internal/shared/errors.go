package shared

import "errors"

var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden indicates the actor lacks the role or ownership for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates no record matches, including records hidden by ownership scoping.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates the requested status is unreachable from the current one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict indicates a concurrent transition raced and lost; callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
