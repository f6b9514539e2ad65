package sessions

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default middleware configuration.
const (
	defaultCookieName = "__sid"
	defaultTTL        = 30 * 24 * time.Hour
)

// Middleware loads the session before the handler runs and persists the
// final state once after it returns. Handlers obtain the session via
// FromContext. The session cookie is written lazily, right before the
// first byte of the response; state changes made after the response has
// started still reach the store, but cannot update the cookie.
type Middleware struct {
	store      Store
	logger     *slog.Logger
	cookieName string
	domain     string
	path       string
	secret     []byte
	ttl        time.Duration
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// Option configures the Middleware.
type Option func(*Middleware)

// NewMiddleware creates a session middleware backed by the given store.
func NewMiddleware(store Store, opts ...Option) *Middleware {
	m := &Middleware{
		store:      store,
		logger:     slog.Default(),
		cookieName: defaultCookieName,
		ttl:        defaultTTL,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithCookieName sets the session cookie name. Default: "__sid".
func WithCookieName(name string) Option {
	return func(m *Middleware) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL sets the session lifetime in the backing store and the cookie
// Max-Age. The TTL restarts on every save. Default: 30 days.
func WithTTL(ttl time.Duration) Option {
	return func(m *Middleware) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSecret enables HMAC-SHA256 signing of the session cookie value.
// Must be at least 32 bytes; shorter secrets are ignored.
func WithSecret(secret string) Option {
	return func(m *Middleware) {
		if len(secret) >= 32 {
			m.secret = []byte(secret)
		}
	}
}

// WithDomain sets the session cookie domain.
func WithDomain(domain string) Option {
	return func(m *Middleware) {
		m.domain = domain
	}
}

// WithPath sets the session cookie path. Default: "/".
func WithPath(path string) Option {
	return func(m *Middleware) {
		if path != "" {
			m.path = path
		}
	}
}

// WithSecure sets the session cookie Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Middleware) {
		m.secure = secure
	}
}

// WithHTTPOnly sets the session cookie HttpOnly flag. Default: true.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Middleware) {
		m.httpOnly = httpOnly
	}
}

// WithSameSite sets the session cookie SameSite attribute. Default: Lax.
func WithSameSite(sameSite http.SameSite) Option {
	return func(m *Middleware) {
		m.sameSite = sameSite
	}
}

// WithLogger sets the logger for load and persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// requestState tracks the token lifecycle for one request.
type requestState struct {
	sess *Session
	// token is what the client presented and resolved to a record.
	token string
	// newToken is set when the cookie was (re)issued during this request.
	newToken string
}

// Handler wraps next with session loading and persistence.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		st := m.load(ctx, r)

		rw := newResponseWriter(w)
		rw.onBeforeWrite(func() {
			m.writeCookie(rw.Header(), st)
		})

		next.ServeHTTP(rw, r.WithContext(NewContext(ctx, st.sess)))

		// Commit the cookie even if the handler wrote no response.
		rw.ensureCommitted()

		m.persist(ctx, st)
	})
}

// load resolves the request cookie to a session. Every failure path
// degrades to a fresh empty session so the request can proceed.
func (m *Middleware) load(ctx context.Context, r *http.Request) *requestState {
	token, err := m.readCookie(r)
	if err != nil {
		if errors.Is(err, ErrBadSignature) {
			m.logger.WarnContext(ctx, "session cookie rejected", slog.Any("error", err))
		}
		return &requestState{sess: newSession(uuid.NewString())}
	}
	if token == "" {
		return &requestState{sess: newSession(uuid.NewString())}
	}

	rec, err := m.store.Load(ctx, token)
	switch {
	case errors.Is(err, ErrNotFound):
		// Unknown or expired token; start over.
		return &requestState{sess: newSession(uuid.NewString())}
	case err != nil:
		m.logger.ErrorContext(ctx, "session load failed", slog.Any("error", err))
		return &requestState{sess: failedSession(uuid.NewString(), err)}
	}

	return &requestState{sess: restoreSession(rec), token: token}
}

// persist issues the single store mutation implied by the final session
// status. Failures are logged and do not affect the already-decided
// response.
func (m *Middleware) persist(ctx context.Context, st *requestState) {
	sess := st.sess

	switch sess.Status() {
	case Unchanged:
		return

	case Purged:
		for _, tok := range []string{st.token, st.newToken} {
			if tok == "" {
				continue
			}
			if err := m.store.Delete(ctx, tok); err != nil {
				m.logger.ErrorContext(ctx, "session delete failed",
					slog.String("session_id", sess.ID()),
					slog.Any("error", err),
				)
			}
		}

	case Renewed:
		// Rotation: the old record dies, the state lives under the token
		// issued at cookie-commit time.
		if st.token != "" && st.token != st.newToken {
			if err := m.store.Delete(ctx, st.token); err != nil {
				m.logger.ErrorContext(ctx, "session delete failed",
					slog.String("session_id", sess.ID()),
					slog.Any("error", err),
				)
			}
		}
		tok := st.newToken
		if tok == "" {
			// Renew was requested after the response started; the cookie
			// could not be rotated, keep the presented token.
			tok = st.token
			m.logger.WarnContext(ctx, "session renewed after response started; token not rotated",
				slog.String("session_id", sess.ID()),
			)
		}
		m.save(ctx, tok, sess)

	case Changed:
		tok := st.newToken
		if tok == "" {
			tok = st.token
		}
		m.save(ctx, tok, sess)
	}
}

func (m *Middleware) save(ctx context.Context, token string, sess *Session) {
	if token == "" {
		m.logger.ErrorContext(ctx, "session save skipped: no token issued",
			slog.String("session_id", sess.ID()),
		)
		return
	}
	rec := &Record{ID: sess.ID(), Data: sess.entries()}
	if err := m.store.Save(ctx, token, rec, m.ttl); err != nil {
		m.logger.ErrorContext(ctx, "session save failed",
			slog.String("session_id", sess.ID()),
			slog.Any("error", err),
		)
	}
}

// writeCookie runs once, right before the response headers are flushed,
// and translates the session status at that moment into a cookie decision.
func (m *Middleware) writeCookie(h http.Header, st *requestState) {
	switch st.sess.Status() {
	case Purged:
		if st.token != "" {
			m.setCookie(h, "", -1)
		}

	case Renewed:
		tok, err := generateToken()
		if err != nil {
			m.logger.Error("session token generation failed", slog.Any("error", err))
			return
		}
		st.newToken = tok
		m.setCookie(h, tok, int(m.ttl.Seconds()))

	case Changed:
		tok := st.token
		if tok == "" {
			var err error
			if tok, err = generateToken(); err != nil {
				m.logger.Error("session token generation failed", slog.Any("error", err))
				return
			}
			st.newToken = tok
		}
		// Re-issuing the same token slides the cookie Max-Age alongside
		// the store TTL.
		m.setCookie(h, tok, int(m.ttl.Seconds()))

	case Unchanged:
		// No state change, no cookie traffic.
	}
}

func (m *Middleware) setCookie(h http.Header, token string, maxAge int) {
	value := token
	if token != "" && m.secret != nil {
		value = m.sign(token)
	}
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
	if v := c.String(); v != "" {
		h.Add("Set-Cookie", v)
	}
}

// readCookie extracts and, when a secret is configured, verifies the
// session token from the request.
func (m *Middleware) readCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", nil // no cookie
	}
	if c.Value == "" {
		return "", nil
	}
	if m.secret == nil {
		return c.Value, nil
	}
	return m.verify(c.Value)
}

// sign produces base64(token).base64(hmac-sha256(token)).
func (m *Middleware) sign(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	sig := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString([]byte(token)) +
		"." + base64.RawURLEncoding.EncodeToString(sig)
}

// verify checks the signature and returns the embedded token.
func (m *Middleware) verify(raw string) (string, error) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 {
		return "", ErrBadSignature
	}

	token, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrBadSignature
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrBadSignature
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(token)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", ErrBadSignature
	}

	return string(token), nil
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
