package models

import "time"

// SessionState is the derived lifecycle state of an attendance session as
// seen by a redeemer. Redeemed is never derived locally, only ever reported
// by the authority.
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionExpired SessionState = "expired"
	SessionEnded   SessionState = "ended"
)

// AttendanceSession is a teacher-issued redemption target for one class
// period.
type AttendanceSession struct {
	SessionCode   string    `json:"sessionCode"`
	Subject       string    `json:"subject"`
	Department    string    `json:"department,omitempty"`
	ExpiryMinutes int       `json:"expiryMinutes"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IsActive      bool      `json:"isActive"`
}

// State derives the session lifecycle state at the given instant. The state
// is never stored redundantly.
func (s AttendanceSession) State(now time.Time) SessionState {
	if !s.IsActive {
		return SessionEnded
	}
	if !now.Before(s.ExpiresAt) {
		return SessionExpired
	}
	return SessionActive
}
