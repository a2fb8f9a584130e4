package models

import "time"

// Student is the identity record returned at registration.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Section    string `json:"section"`
}

// RegisterRequest carries the profile fields for register/bind. The device
// fingerprint travels in the X-Device-Fingerprint header, not the body.
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	RollNumber string `json:"rollNumber" binding:"required"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Section    string `json:"section"`
}

type RegisterResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// TokenStatus is the wire shape of the cooldown status endpoint.
type TokenStatus struct {
	HasToken          bool `json:"hasToken"`
	CooldownRemaining int  `json:"cooldownRemaining"`
}

type MarkRequest struct {
	SessionCode string `json:"sessionCode" binding:"required"`
}

// AttendanceRecord is a redeemed attendance entry. The core never constructs
// one locally, it only relays what the authority returns.
type AttendanceRecord struct {
	ID       string    `json:"id"`
	Subject  string    `json:"subject"`
	Teacher  string    `json:"teacher,omitempty"`
	MarkedAt time.Time `json:"markedAt"`
	Status   string    `json:"status"`
}

type MarkResponse struct {
	Success    bool             `json:"success"`
	Attendance AttendanceRecord `json:"attendance"`
}

type HistoryResponse struct {
	Attendance []AttendanceRecord `json:"attendance"`
}

// ScanPayload is the structured object a QR code carries. Anything without a
// sessionCode field is invalid input.
type ScanPayload struct {
	SessionCode string `json:"sessionCode"`
	Subject     string `json:"subject,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// RedemptionAttempt is the normalized request produced by either capture
// path. At most one attempt is in flight per identity.
type RedemptionAttempt struct {
	SessionCode string
	Identity    string
	Fingerprint string
	SubmittedAt time.Time
}

// APIError is the JSON error body the authority writes on failures.
type APIError struct {
	Message           string `json:"message"`
	Code              string `json:"code,omitempty"`
	CooldownRemaining int    `json:"cooldownRemaining,omitempty"`
	DeviceLocked      bool   `json:"deviceLocked,omitempty"`
}
