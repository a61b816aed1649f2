package application

import "errors"

// Error kinds returned by the application services. Handlers match these with
// errors.Is and map them to HTTP statuses; raw storage errors never surface.
var (
	// ErrValidation covers malformed, missing, or too-short input.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateEmail is returned by Register when the normalized email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrEmailTaken is returned by UpdateProfile when another account owns the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is deliberately identical for unknown email and
	// wrong password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidOrExpiredToken collapses not-found, used, expired and orphaned
	// reset tokens into one kind.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrUnauthenticated means no valid session accompanied the request.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable is a transient infrastructure failure; safe to retry
	// with the same inputs.
	ErrStoreUnavailable = errors.New("store unavailable")
)
