package sessions

import "context"

// Status describes what happened to a session during the current request.
// The middleware inspects it after the handler returns to decide which
// single store mutation (if any) to issue.
type Status int

const (
	// Unchanged means no modification was made; nothing is persisted.
	Unchanged Status = iota
	// Changed means values were inserted or removed; the session is saved.
	Changed
	// Renewed means the session token must be rotated; the old record is
	// deleted and the state is saved under a fresh token.
	Renewed
	// Purged means the session and its cookie are deleted.
	Purged
)

// String returns a human-readable status name for logging.
func (s Status) String() string {
	switch s {
	case Changed:
		return "changed"
	case Renewed:
		return "renewed"
	case Purged:
		return "purged"
	default:
		return "unchanged"
	}
}

// Session is a per-request view over the backing store. All operations
// mutate an in-memory buffer; the middleware persists the final state once,
// after the handler returns. A Session is scoped to a single request and
// must not be shared across requests.
type Session struct {
	id      string
	data    map[string]string
	status  Status
	isNew   bool
	loadErr error
}

// newSession creates a fresh, empty session.
func newSession(id string) *Session {
	return &Session{
		id:    id,
		data:  make(map[string]string),
		isNew: true,
	}
}

// restoreSession wraps a record loaded from the store.
func restoreSession(rec *Record) *Session {
	data := rec.Data
	if data == nil {
		data = make(map[string]string)
	}
	return &Session{id: rec.ID, data: data}
}

// failedSession creates an empty session carrying the store load error.
// The request proceeds with no prior state; callers can distinguish
// "new visitor" from "backend failure" via LoadError.
func failedSession(id string, err error) *Session {
	s := newSession(id)
	s.loadErr = err
	return s
}

// ID returns the stable session identifier. It survives token rotation.
func (s *Session) ID() string {
	return s.id
}

// Get returns the value stored under key, if present.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Insert stores a value under key. Inserting into a purged session revives
// it: the state will be persisted again as a changed session.
func (s *Session) Insert(key, value string) error {
	s.data[key] = value
	if s.status != Renewed {
		s.status = Changed
	}
	return nil
}

// Remove deletes a key. Removing a missing key is a no-op.
func (s *Session) Remove(key string) {
	if _, ok := s.data[key]; !ok {
		return
	}
	delete(s.data, key)
	if s.status != Renewed && s.status != Purged {
		s.status = Changed
	}
}

// Purge clears all session state. After the handler returns, the backing
// record and the session cookie are deleted.
func (s *Session) Purge() {
	s.data = make(map[string]string)
	s.status = Purged
}

// Renew marks the session for token rotation. The state is re-saved under
// a fresh token and the backing TTL restarts, invalidating any previously
// issued cookie. Call after privilege changes to prevent session fixation.
func (s *Session) Renew() {
	s.status = Renewed
}

// Status returns the pending persistence outcome for this request.
func (s *Session) Status() Status {
	return s.status
}

// IsNew reports whether the session was created during this request rather
// than restored from the store.
func (s *Session) IsNew() bool {
	return s.isNew
}

// LoadError returns the store error encountered while restoring the
// session, or nil. When non-nil the session started empty even though the
// client presented a token.
func (s *Session) LoadError() error {
	return s.loadErr
}

// entries returns the buffered state for persistence.
func (s *Session) entries() map[string]string {
	return s.data
}

type ctxKey struct{}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session placed by the middleware.
// The second return value is false if the middleware is not mounted.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
