package sessions

import "errors"

// Session errors.
var (
	// ErrNotFound is returned by a Store when no record exists under the
	// presented token, or the record has expired.
	ErrNotFound = errors.New("sessions: not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("sessions: store closed")

	// ErrBadSignature is returned when a signed session cookie fails
	// verification. The request proceeds with a fresh session.
	ErrBadSignature = errors.New("sessions: invalid cookie signature")

	// ErrMarshal and ErrUnmarshal wrap serialization failures in stores
	// that persist records as bytes.
	ErrMarshal   = errors.New("sessions: marshal failed")
	ErrUnmarshal = errors.New("sessions: unmarshal failed")
)
