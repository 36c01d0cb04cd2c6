package domain

import "errors"

// Sentinel errors crossing the service boundary. Repositories and services
// return these directly (or wrapped with %w); the HTTP layer translates them
// to status codes with errors.Is.
var (
	// Conflict: a unique field collided. Each sentinel names the offending
	// field so callers can report which one without parsing driver errors.
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already registered")

	// NotFound: covers both absent records and ids that are syntactically
	// invalid for the active backend.
	ErrUserNotFound = errors.New("user not found")

	// Unauthorized: deliberately generic so a caller cannot tell whether the
	// identifier or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid or expired token")

	// Forbidden: the authorization precondition failed at the boundary.
	ErrForbidden = errors.New("access forbidden")

	// Validation: malformed input that survived transport-level checks.
	ErrInvalidRole      = errors.New("invalid role")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)
