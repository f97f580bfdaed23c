package service

import (
	"errors"
	"fmt"
)

// Error taxonomy for the auth core. Every verification failure collapses to
// ErrUnauthorized at the boundary regardless of root cause, so callers learn
// nothing about which check failed; the root cause is still logged
// internally.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
)

// MFA state misuse. These are caller errors, distinct from the plain
// wrong-code case which is reported as a boolean false.
var (
	ErrMFAAlreadyEnabled = fmt.Errorf("%w: mfa already enabled", ErrConflict)
	ErrMFANotEnrolled    = fmt.Errorf("%w: mfa enrollment not started", ErrConflict)
	ErrMFANotEnabled     = fmt.Errorf("%w: mfa not enabled", ErrConflict)
)
