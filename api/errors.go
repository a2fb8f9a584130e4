package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// failureFromResponse classifies an error response into the failure
// taxonomy. The `code` field is authoritative; the HTTP status is only a
// fallback for authorities that omit it.
func failureFromResponse(res *http.Response) error {
	var body models.APIError
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		body = models.APIError{}
	}

	failure := &models.Failure{
		Message:           body.Message,
		CooldownRemaining: body.CooldownRemaining,
	}

	switch body.Code {
	case "cooldown_active":
		failure.Kind = models.KindCooldownActive
	case "session_unavailable", "not_found":
		failure.Kind = models.KindSessionUnavailable
	case "already_redeemed":
		failure.Kind = models.KindAlreadyRedeemed
	case "device_mismatch":
		failure.Kind = models.KindDeviceMismatch
	case "device_locked":
		failure.Kind = models.KindDeviceLocked
	case "auth_expired":
		failure.Kind = models.KindAuthExpired
	default:
		failure.Kind = kindFromStatus(res.StatusCode, body)
	}
	if failure.Message == "" {
		failure.Message = http.StatusText(res.StatusCode)
	}
	return failure
}

func kindFromStatus(status int, body models.APIError) models.FailureKind {
	switch {
	case body.DeviceLocked:
		return models.KindDeviceLocked
	case status == http.StatusUnauthorized:
		return models.KindAuthExpired
	case status == http.StatusTooManyRequests:
		return models.KindCooldownActive
	case status == http.StatusNotFound, status == http.StatusGone:
		return models.KindSessionUnavailable
	case status == http.StatusConflict:
		return models.KindAlreadyRedeemed
	default:
		return models.KindTransient
	}
}

// authExpiredLocally inspects the credential's exp claim without a round
// trip. The server stays authoritative; this only saves spending a request
// on a token that is certainly dead.
func (c *Client) authExpiredLocally() error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque non-JWT credentials pass through untouched.
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return &models.Failure{Kind: models.KindAuthExpired, Message: "credential expired"}
	}
	return nil
}
