package models

import (
	"testing"
	"time"
)

func TestSessionStateDerivation(t *testing.T) {
	expires := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		session AttendanceSession
		now     time.Time
		want    SessionState
	}{
		{"active before expiry", AttendanceSession{IsActive: true, ExpiresAt: expires}, expires.Add(-time.Minute), SessionActive},
		{"expired at the boundary", AttendanceSession{IsActive: true, ExpiresAt: expires}, expires, SessionExpired},
		{"expired after", AttendanceSession{IsActive: true, ExpiresAt: expires}, expires.Add(time.Hour), SessionExpired},
		{"ended beats expiry", AttendanceSession{IsActive: false, ExpiresAt: expires}, expires.Add(-time.Minute), SessionEnded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.State(tc.now); got != tc.want {
				t.Errorf("State(%v) = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestFailureKindMatching(t *testing.T) {
	err := NewFailure(KindCooldownActive, "cooldown active")
	if !IsKind(err, KindCooldownActive) {
		t.Error("IsKind missed a direct failure")
	}
	if IsKind(err, KindDeviceLocked) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(nil, KindCooldownActive) {
		t.Error("IsKind matched nil")
	}
}
