package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenPair is the access/refresh credential pair issued by the backend.
//
// AccessTokenExpiresAt is optional on the wire; when the server omits it the
// store stamps it from AccessTokenExpiresIn at write time so that the expiry
// instant survives reloads without drifting.
type TokenPair struct {
	// AccessToken is the short-lived bearer credential sent on every
	// authenticated request.
	AccessToken string `json:"access_token"`

	// AccessTokenExpiresIn is the access token lifetime in seconds, as
	// reported by the server at issue time.
	AccessTokenExpiresIn int64 `json:"access_token_expires_in,omitempty"`

	// AccessTokenExpiresAt is the absolute expiry instant. Optional on the
	// wire, stamped locally when absent.
	AccessTokenExpiresAt *time.Time `json:"access_token_expires_at,omitempty"`

	// RefreshToken is the long-lived credential used to obtain a new access
	// token without re-entering a password.
	RefreshToken string `json:"refresh_token"`

	// RefreshTokenExpiresAt is when the refresh token itself expires.
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at,omitempty"`
}

// StampExpiry fills in AccessTokenExpiresAt from AccessTokenExpiresIn when
// the server omitted it. Idempotent: an already-stamped pair is left alone,
// so repeated reads of the same record never shift the expiry instant.
func (t *TokenPair) StampExpiry() {
	if t == nil || t.AccessTokenExpiresAt != nil || t.AccessTokenExpiresIn <= 0 {
		return
	}
	at := NowTimeFunc().Add(time.Duration(t.AccessTokenExpiresIn) * time.Second)
	t.AccessTokenExpiresAt = &at
}

// IsAccessTokenExpired reports whether the access token must be refreshed
// before use.
//
// A nil pair or empty access token counts as expired. When the expiry
// instant is unknown the token is treated as NOT expired: an optimistic
// "assume valid until proven otherwise" default. The transport's 401
// retry-once path is the safety net for a token this misjudges.
func IsAccessTokenExpired(t *TokenPair) bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.AccessTokenExpiresAt == nil {
		return false
	}
	return !NowTimeFunc().Before(*t.AccessTokenExpiresAt)
}

// AccessTokenClaims decodes the access token's JWT claims without verifying
// the signature. The client holds no key material; this is for display and
// diagnostics only, never for trust decisions.
func AccessTokenClaims(accessToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, errors.Wrap(err, "[AccessTokenClaims] parse")
	}
	return claims, nil
}
