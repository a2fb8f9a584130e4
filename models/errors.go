package models

import (
	"errors"
	"fmt"
)

// FailureKind classifies every way a redemption flow can fail. Kinds map 1:1
// onto the `code` field of APIError for server-reported failures; the rest
// are produced locally without a network call.
type FailureKind string

const (
	KindInvalidPayload      FailureKind = "invalid_payload"
	KindNoTokenAvailable    FailureKind = "no_token_available"
	KindAttemptInFlight     FailureKind = "attempt_in_flight"
	KindCooldownActive      FailureKind = "cooldown_active"
	KindSessionUnavailable  FailureKind = "session_unavailable"
	KindAlreadyRedeemed     FailureKind = "already_redeemed"
	KindDeviceMismatch      FailureKind = "device_mismatch"
	KindDeviceLocked        FailureKind = "device_locked"
	KindAuthExpired         FailureKind = "auth_expired"
	KindResourceUnavailable FailureKind = "resource_unavailable"
	KindTransient           FailureKind = "transient"
)

// Failure is the error type every component of the core reports. Server
// failures are surfaced verbatim in Message; CooldownRemaining is only set
// for KindCooldownActive.
type Failure struct {
	Kind              FailureKind
	Message           string
	CooldownRemaining int
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// FailureOf unwraps err into a *Failure if one is in the chain.
func FailureOf(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind FailureKind) bool {
	f, ok := FailureOf(err)
	return ok && f.Kind == kind
}
