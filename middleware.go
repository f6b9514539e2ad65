package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fortress-build/identity/pkg/sessions"
)

// Reserved session keys. Namespaced to avoid collision with application
// session data.
const (
	idKey             = "identity.id"
	loginTimestampKey = "identity.login_unix_ts"
	visitTimestampKey = "identity.last_visit_unix_ts"
)

// LogoutBehaviour controls what Logout (and the expiry self-heal) removes
// from the session.
type LogoutBehaviour int

const (
	// PurgeSession clears the whole session, identity keys and application
	// data alike. This is the default.
	PurgeSession LogoutBehaviour = iota
	// DeleteIdentityKeys removes only the reserved identity keys, leaving
	// application session data in place.
	DeleteIdentityKeys
)

// Middleware resolves the logged-in principal from the session before the
// handler runs and applies the staged identity writes after it returns.
// Mount it inside the sessions middleware:
//
//	sm := sessions.NewMiddleware(store)
//	im := identity.New(identity.WithVisitDeadline(30 * time.Minute))
//	handler := sm.Handler(im.Handler(mux))
type Middleware struct {
	logger    *slog.Logger
	now       func() time.Time
	policy    policy
	behaviour LogoutBehaviour
}

// Option configures the Middleware.
type Option func(*Middleware)

// New creates an identity middleware. With no options, identities never
// expire on their own and live as long as the backing session.
func New(opts ...Option) *Middleware {
	m := &Middleware{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithLoginDeadline sets the maximum absolute age since login before the
// identity expires regardless of activity. Disabled by default.
func WithLoginDeadline(d time.Duration) Option {
	return func(m *Middleware) {
		if d > 0 {
			m.policy.loginDeadline = d
		}
	}
}

// WithVisitDeadline sets the maximum inactivity gap since the last
// validated request before the identity expires. Disabled by default.
func WithVisitDeadline(d time.Duration) Option {
	return func(m *Middleware) {
		if d > 0 {
			m.policy.visitDeadline = d
		}
	}
}

// WithVisitDeadlineRefreshInterval sets the minimum age of the last-visit
// timestamp before it is rewritten, bounding session writes on busy
// clients. Default: half the visit deadline.
func WithVisitDeadlineRefreshInterval(d time.Duration) Option {
	return func(m *Middleware) {
		if d > 0 {
			m.policy.refreshInterval = d
		}
	}
}

// WithLogoutBehaviour sets what Logout removes from the session.
// Default: PurgeSession.
func WithLogoutBehaviour(b LogoutBehaviour) Option {
	return func(m *Middleware) {
		m.behaviour = b
	}
}

// WithLogger sets the logger for post-handler persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source. Intended for tests that exercise
// deadline expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

// state is the per-request identity evaluation, shared between the
// middleware and the Identity handles it hands out. It lives in the
// request context and never outlives the request.
type state struct {
	m    *Middleware
	sess *sessions.Session

	// id is the resolved principal; empty when anonymous.
	id string
	// err is the typed extraction failure, nil when authenticated.
	err error

	// staged post-handler actions from pre-handler evaluation.
	refreshVisit bool
	purgeAfter   bool

	// handler actions observed during the request.
	loggedIn  bool
	loggedOut bool
}

type stateKey struct{}

func newContext(ctx context.Context, st *state) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

func stateFromContext(ctx context.Context) *state {
	st, _ := ctx.Value(stateKey{}).(*state)
	return st
}

// Handler wraps next with identity extraction and persistence. It must run
// inside the sessions middleware; without a session in the context the
// request proceeds anonymously and extraction reports ErrNotConfigured.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, ok := sessions.FromContext(ctx)
		if !ok {
			m.logger.ErrorContext(ctx, "identity middleware mounted outside sessions middleware")
			next.ServeHTTP(w, r)
			return
		}

		st := m.extract(sess)

		next.ServeHTTP(w, r.WithContext(newContext(ctx, st)))

		m.finish(ctx, st)
	})
}

// extract runs the pre-handler evaluation: read the reserved keys, apply
// the deadline policy, and stage the post-handler action.
func (m *Middleware) extract(sess *sessions.Session) *state {
	st := &state{m: m, sess: sess}

	if err := sess.LoadError(); err != nil {
		st.err = errors.Join(ErrSessionRead, err)
		return st
	}

	id, ok := sess.Get(idKey)
	if !ok {
		st.err = ErrNoIdentity
		return st
	}

	v := m.policy.evaluate(
		m.now(),
		readTimestamp(sess, loginTimestampKey),
		readTimestamp(sess, visitTimestampKey),
	)
	if v.err != nil {
		// Expired or corrupt: anonymous for this request, and the stale
		// state is actively cleaned after the handler runs.
		st.err = v.err
		st.purgeAfter = true
		return st
	}

	st.id = id
	st.refreshVisit = v.refreshVisit
	return st
}

// finish applies at most one staged session change after the handler
// returns. A login or logout during the handler supersedes anything staged
// during extraction. Failures are logged; the response is already decided.
func (m *Middleware) finish(ctx context.Context, st *state) {
	switch {
	case st.loggedOut, st.loggedIn:
		// The handler's own writes are final.

	case st.purgeAfter:
		m.clearIdentity(st.sess)
		m.logger.InfoContext(ctx, "expired identity purged",
			slog.String("session_id", st.sess.ID()),
			slog.String("reason", st.errReason()),
		)

	case st.refreshVisit && st.id != "":
		if err := writeTimestamp(st.sess, visitTimestampKey, m.now()); err != nil {
			m.logger.ErrorContext(ctx, "last-visit refresh failed",
				slog.String("session_id", st.sess.ID()),
				slog.Any("error", err),
			)
		}
	}
}

// clearIdentity removes identity state per the configured logout behaviour.
func (m *Middleware) clearIdentity(sess *sessions.Session) {
	switch m.behaviour {
	case DeleteIdentityKeys:
		sess.Remove(idKey)
		sess.Remove(loginTimestampKey)
		sess.Remove(visitTimestampKey)
	default:
		sess.Purge()
	}
}

// errReason renders the staged rejection for logging.
func (st *state) errReason() string {
	if st.err == nil {
		return ""
	}
	return st.err.Error()
}

// readTimestamp parses a unix-seconds session value. Returns the zero time
// when the key is absent or unreadable; the policy decides whether that
// matters for the enabled deadlines.
func readTimestamp(sess *sessions.Session, key string) time.Time {
	raw, ok := sess.Get(key)
	if !ok {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// writeTimestamp stores a unix-seconds session value.
func writeTimestamp(sess *sessions.Session, key string, t time.Time) error {
	return sess.Insert(key, strconv.FormatInt(t.Unix(), 10))
}
