package identity

import (
	"testing"
	"time"
)

func TestPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		p           policy
		loggedAt    time.Time
		lastVisited time.Time
		wantErr     error
		wantRefresh bool
	}{
		{
			name: "no deadlines always valid",
			p:    policy{},
		},
		{
			name:     "login deadline valid",
			p:        policy{loginDeadline: time.Hour},
			loggedAt: now.Add(-30 * time.Minute),
		},
		{
			name:     "login deadline exceeded",
			p:        policy{loginDeadline: time.Hour},
			loggedAt: now.Add(-2 * time.Hour),
			wantErr:  ErrLoginDeadlineExceeded,
		},
		{
			name:     "login deadline boundary is inclusive",
			p:        policy{loginDeadline: time.Hour},
			loggedAt: now.Add(-time.Hour),
		},
		{
			name:    "missing login timestamp is malformed",
			p:       policy{loginDeadline: time.Hour},
			wantErr: ErrMalformedIdentityState,
		},
		{
			name:        "visit deadline valid refresh not yet due",
			p:           policy{visitDeadline: time.Hour},
			lastVisited: now.Add(-10 * time.Minute),
		},
		{
			name:        "visit deadline valid refresh due",
			p:           policy{visitDeadline: time.Hour},
			lastVisited: now.Add(-40 * time.Minute),
			wantRefresh: true,
		},
		{
			name:        "refresh due exactly at the interval",
			p:           policy{visitDeadline: time.Hour},
			lastVisited: now.Add(-30 * time.Minute),
			wantRefresh: true,
		},
		{
			name:        "explicit refresh interval",
			p:           policy{visitDeadline: time.Hour, refreshInterval: 5 * time.Minute},
			lastVisited: now.Add(-10 * time.Minute),
			wantRefresh: true,
		},
		{
			name:        "visit deadline exceeded",
			p:           policy{visitDeadline: 30 * time.Minute},
			lastVisited: now.Add(-40 * time.Minute),
			wantErr:     ErrVisitDeadlineExceeded,
		},
		{
			name:    "missing visit timestamp is malformed",
			p:       policy{visitDeadline: 30 * time.Minute},
			wantErr: ErrMalformedIdentityState,
		},
		{
			name:        "login deadline checked before visit deadline",
			p:           policy{loginDeadline: time.Hour, visitDeadline: 30 * time.Minute},
			loggedAt:    now.Add(-2 * time.Hour),
			lastVisited: now.Add(-time.Minute), // recently active, still rejected
			wantErr:     ErrLoginDeadlineExceeded,
		},
		{
			name:        "fresh login stale visit rejected on visit deadline",
			p:           policy{loginDeadline: 24 * time.Hour, visitDeadline: 30 * time.Minute},
			loggedAt:    now.Add(-time.Hour),
			lastVisited: now.Add(-40 * time.Minute),
			wantErr:     ErrVisitDeadlineExceeded,
		},
		{
			name:        "disabled deadlines ignore stale timestamps",
			p:           policy{},
			loggedAt:    now.Add(-1000 * time.Hour),
			lastVisited: now.Add(-1000 * time.Hour),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := tt.p.evaluate(now, tt.loggedAt, tt.lastVisited)
			if v.err != tt.wantErr {
				t.Errorf("err = %v, want %v", v.err, tt.wantErr)
			}
			if v.refreshVisit != tt.wantRefresh {
				t.Errorf("refreshVisit = %v, want %v", v.refreshVisit, tt.wantRefresh)
			}
		})
	}
}

func TestPolicy_EffectiveRefreshInterval(t *testing.T) {
	t.Parallel()

	p := policy{visitDeadline: time.Hour}
	if got := p.effectiveRefreshInterval(); got != 30*time.Minute {
		t.Errorf("default interval = %v, want half the visit deadline", got)
	}

	p.refreshInterval = 5 * time.Minute
	if got := p.effectiveRefreshInterval(); got != 5*time.Minute {
		t.Errorf("explicit interval = %v, want 5m", got)
	}
}
