package authority

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// issueToken signs an HS256 credential for the identity. Called with the
// state mutex held.
func (a *Authority) issueToken(identityID string) (string, error) {
	now := a.Now()
	claims := jwt.RegisteredClaims{
		Subject:   identityID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", models.NewFailure(models.KindTransient, "could not sign credential")
	}
	return token, nil
}

// Authenticate resolves a bearer credential to an identity id. Every parse
// or validation failure is reported as auth_expired: the caller re-registers
// or re-logs-in either way.
func (a *Authority) Authenticate(bearer string) (string, error) {
	bearer = strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	if bearer == "" {
		return "", models.NewFailure(models.KindAuthExpired, "missing credential")
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(bearer, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(a.Now))
	if err != nil {
		return "", models.NewFailure(models.KindAuthExpired, "invalid or expired credential")
	}

	a.mu.Lock()
	_, known := a.identities[claims.Subject]
	a.mu.Unlock()
	if !known {
		return "", models.NewFailure(models.KindAuthExpired, "unknown identity")
	}
	return claims.Subject, nil
}
