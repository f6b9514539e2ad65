package identity

import (
	"context"
	"net/http"
)

// Identity is a verified principal attached to the current session. It is
// only obtainable for a request that passed extraction, so a handle never
// represents an invalid state.
type Identity struct {
	st *state
	id string
}

// ID returns the opaque application-defined identifier (e.g. a user id)
// resolved for the current request. The value is never interpreted by this
// package.
func (i *Identity) ID() string {
	return i.id
}

// Logout detaches the identity from the session. What is removed depends
// on the middleware's LogoutBehaviour: the whole session (default) or only
// the reserved identity keys. Logout is idempotent; subsequent extraction
// within the same request observes ErrNoIdentity.
func (i *Identity) Logout() {
	st := i.st
	if st.loggedOut {
		return
	}

	st.m.clearIdentity(st.sess)
	st.loggedOut = true
	st.loggedIn = false
	st.id = ""
	st.err = ErrNoIdentity
}

// Login attaches a valid identity to the current session. Call it after
// the user's credentials have been verified. It overwrites any prior
// identity, records the login and last-visit instants, and renews the
// session token to prevent fixation.
//
// Returns a *LoginError when the session cannot be written; the login must
// then be treated as not committed. Returns ErrNotConfigured when the
// identity middleware is not mounted.
func Login(ctx context.Context, id string) (*Identity, error) {
	st := stateFromContext(ctx)
	if st == nil {
		return nil, ErrNotConfigured
	}

	now := st.m.now()
	if err := st.sess.Insert(idKey, id); err != nil {
		return nil, &LoginError{Err: err}
	}
	if err := writeTimestamp(st.sess, loginTimestampKey, now); err != nil {
		return nil, &LoginError{Err: err}
	}
	if err := writeTimestamp(st.sess, visitTimestampKey, now); err != nil {
		return nil, &LoginError{Err: err}
	}
	st.sess.Renew()

	st.id = id
	st.err = nil
	st.loggedIn = true
	st.loggedOut = false

	return &Identity{st: st, id: id}, nil
}

// FromContext returns the identity attached to the current request, or a
// typed reason why none is available: ErrNoIdentity (never logged in),
// ErrLoginDeadlineExceeded / ErrVisitDeadlineExceeded (expired),
// ErrMalformedIdentityState (corrupt state, purged), ErrSessionRead
// (backend failure), or ErrNotConfigured (middleware not mounted).
func FromContext(ctx context.Context) (*Identity, error) {
	st := stateFromContext(ctx)
	if st == nil {
		return nil, ErrNotConfigured
	}
	if st.err != nil {
		return nil, st.err
	}
	if st.id == "" {
		return nil, ErrNoIdentity
	}
	return &Identity{st: st, id: st.id}, nil
}

// FromRequest is a convenience wrapper over FromContext.
func FromRequest(r *http.Request) (*Identity, error) {
	return FromContext(r.Context())
}
