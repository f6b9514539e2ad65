// Package identity turns raw session key-value storage into a typed notion
// of "the currently logged-in principal", with deadline-based expiration.
//
// The package owns the identity lifecycle - attach, recognize, expire,
// renew, invalidate - and nothing else: authentication (verifying
// credentials), authorization, transport, and session persistence are left
// to the application and to pkg/sessions.
//
// # Mounting
//
// The identity middleware runs inside the sessions middleware:
//
//	store := sessions.NewMemory()
//	sm := sessions.NewMiddleware(store)
//	im := identity.New(
//	    identity.WithLoginDeadline(24 * time.Hour),
//	    identity.WithVisitDeadline(30 * time.Minute),
//	)
//
//	http.ListenAndServe(":8080", sm.Handler(im.Handler(mux)))
//
// # Handlers
//
// Log a user in after verifying their credentials:
//
//	func handleLogin(w http.ResponseWriter, r *http.Request) {
//	    user, err := authenticate(r) // application's concern
//	    if err != nil { ... }
//	    if _, err := identity.Login(r.Context(), user.ID); err != nil {
//	        http.Error(w, "login failed", http.StatusInternalServerError)
//	        return
//	    }
//	    w.WriteHeader(http.StatusNoContent)
//	}
//
// Recognize them on later requests, branching on the typed reason when no
// identity is available:
//
//	func handleProfile(w http.ResponseWriter, r *http.Request) {
//	    user, err := identity.FromRequest(r)
//	    switch {
//	    case err == nil:
//	        fmt.Fprintf(w, "hello, %s", user.ID())
//	    case identity.IsDeadlineExceeded(err):
//	        http.Error(w, "session expired, please log in again", http.StatusUnauthorized)
//	    default:
//	        http.Redirect(w, r, "/login", http.StatusSeeOther)
//	    }
//	}
//
// And log them out:
//
//	func handleLogout(w http.ResponseWriter, r *http.Request) {
//	    if user, err := identity.FromRequest(r); err == nil {
//	        user.Logout()
//	    }
//	    w.WriteHeader(http.StatusNoContent)
//	}
//
// # Deadlines
//
// Two independent clocks bound an identity's life. The login deadline caps
// absolute age since login; the visit deadline caps inactivity between
// validated requests. Both are disabled by default. The login deadline is
// the stronger guarantee and is checked first.
//
// The last-visit timestamp is refreshed after each validated request, but
// only when it is older than the refresh interval (default: half the visit
// deadline), so long-deadline deployments do not rewrite the session store
// on every request.
//
// An identity that is present but expired is not merely ignored: the stale
// keys are purged after the handler runs, so the cleanup cost is paid once
// and never blocks the handler itself.
package identity
