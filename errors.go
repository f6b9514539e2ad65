package identity

import (
	"errors"
	"fmt"
)

// Extraction errors. FromContext returns exactly one of these when no
// identity is available, so handlers can branch on the specific reason
// (redirect to login vs. "your session expired").
var (
	// ErrNotConfigured is returned when identity functionality is used but
	// the identity middleware is not mounted on the request path.
	ErrNotConfigured = errors.New("identity: middleware not configured")

	// ErrNoIdentity is returned when the session carries no identity:
	// the visitor never logged in, or logged out earlier in this request.
	ErrNoIdentity = errors.New("identity: no identity attached to session")

	// ErrLoginDeadlineExceeded is returned when the identity's absolute
	// age since login exceeds the configured login deadline.
	ErrLoginDeadlineExceeded = errors.New("identity: login deadline exceeded")

	// ErrVisitDeadlineExceeded is returned when the gap since the last
	// validated request exceeds the configured visit deadline.
	ErrVisitDeadlineExceeded = errors.New("identity: visit deadline exceeded")

	// ErrMalformedIdentityState is returned when the identity key is
	// present but a timestamp required by an enabled deadline is missing
	// or unreadable. The state is treated as expired and purged.
	ErrMalformedIdentityState = errors.New("identity: malformed identity state")

	// ErrSessionRead is returned when the session backend failed during
	// extraction. It wraps the underlying store error.
	ErrSessionRead = errors.New("identity: session read failed")
)

// LoginError reports a failure to write identity state during Login.
// The login must be treated as not committed.
type LoginError struct {
	Err error
}

// Error implements the error interface.
func (e *LoginError) Error() string {
	return fmt.Sprintf("identity: login failed: %v", e.Err)
}

// Unwrap returns the underlying write error.
func (e *LoginError) Unwrap() error {
	return e.Err
}

// IsLoginError returns true if the error is a LoginError.
func IsLoginError(err error) bool {
	var le *LoginError
	return errors.As(err, &le)
}

// IsDeadlineExceeded returns true if the error is one of the deadline
// rejections (login or visit).
func IsDeadlineExceeded(err error) bool {
	return errors.Is(err, ErrLoginDeadlineExceeded) || errors.Is(err, ErrVisitDeadlineExceeded)
}
