// Package sessions provides cookie-based HTTP sessions backed by a
// pluggable key-value store.
//
// A session is a per-request buffer over the store: handlers read and
// write string values freely, and the middleware persists the final state
// exactly once after the handler returns. Within one request the store is
// touched at most twice - one load before the handler, one mutation batch
// after it.
//
// # Usage
//
//	store := sessions.NewMemory()
//	defer store.Close()
//
//	sm := sessions.NewMiddleware(store,
//	    sessions.WithTTL(7*24*time.Hour),
//	    sessions.WithSecret(os.Getenv("SESSION_SECRET")),
//	    sessions.WithSecure(true),
//	)
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//	    sess, _ := sessions.FromContext(r.Context())
//	    sess.Insert("theme", "dark")
//	})
//
//	http.ListenAndServe(":8080", sm.Handler(mux))
//
// # Stores
//
// Two stores ship with the package: Memory for tests and single-instance
// deployments, and RedisStore for anything running behind a load balancer.
// Implement the Store interface to plug in another backend.
//
// # Token rotation
//
// Session.Renew marks the session for token rotation: the old record is
// deleted and the state is re-saved under a fresh token, with a new cookie
// issued to the client. Call it whenever the session's privilege level
// changes (login, role escalation) to prevent session fixation.
//
// # Cookie signing
//
// With WithSecret configured, the cookie value carries an HMAC-SHA256
// signature. Tampered cookies are rejected and the request proceeds with a
// fresh session.
package sessions
