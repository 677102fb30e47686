package totalsdk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the credential pair issued by /auth/login and /auth/refresh-token
type Tokens struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (t Tokens) Empty() bool {
	return t.IDToken == "" && t.RefreshToken == ""
}

type LoginRequest struct {
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	Tokens Tokens         `json:"tokens"`
	User   map[string]any `json:"user,omitempty"`
}

// tokenExpiry reads the exp claim without verifying the signature. Tokens that
// are not JWTs, or carry no exp, report ok=false.
func tokenExpiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// tokenExpired is true when token is a JWT whose exp falls within leeway of now
func tokenExpired(token string, now time.Time, leeway time.Duration) bool {
	exp, ok := tokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
