package identity

import "time"

// policy holds the deadline configuration. It is built once by New and
// shared read-only across all concurrent request evaluations.
type policy struct {
	loginDeadline   time.Duration // 0 = disabled
	visitDeadline   time.Duration // 0 = disabled
	refreshInterval time.Duration // 0 = derive half the visit deadline
}

// verdict is the outcome of evaluating recorded timestamps against "now".
type verdict struct {
	// err is nil when the identity is valid; otherwise one of
	// ErrLoginDeadlineExceeded, ErrVisitDeadlineExceeded, or
	// ErrMalformedIdentityState.
	err error
	// refreshVisit is set when the last-visit timestamp is stale enough
	// to be worth rewriting this request.
	refreshVisit bool
}

// evaluate applies both deadlines to an identity that is present in the
// session. A zero timestamp means the corresponding key is absent or
// unreadable. The login deadline is checked first: an identity whose
// absolute age has expired is rejected even if recently active.
func (p policy) evaluate(now, loggedAt, lastVisitedAt time.Time) verdict {
	if p.loginDeadline > 0 {
		if loggedAt.IsZero() {
			return verdict{err: ErrMalformedIdentityState}
		}
		if now.Sub(loggedAt) > p.loginDeadline {
			return verdict{err: ErrLoginDeadlineExceeded}
		}
	}

	if p.visitDeadline > 0 {
		if lastVisitedAt.IsZero() {
			return verdict{err: ErrMalformedIdentityState}
		}
		if now.Sub(lastVisitedAt) > p.visitDeadline {
			return verdict{err: ErrVisitDeadlineExceeded}
		}
		return verdict{refreshVisit: now.Sub(lastVisitedAt) >= p.effectiveRefreshInterval()}
	}

	return verdict{}
}

// effectiveRefreshInterval returns the configured coalescing interval, or
// half the visit deadline when unset. The interval bounds write
// amplification: a request refreshes the last-visit timestamp only when
// the recorded value is at least this old.
func (p policy) effectiveRefreshInterval() time.Duration {
	if p.refreshInterval > 0 {
		return p.refreshInterval
	}
	return p.visitDeadline / 2
}
