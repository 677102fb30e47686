package sdktest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

type tokenClaims struct {
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) issueTokensLocked() (totalsdk.Tokens, error) {
	now := time.Now()
	claims := &tokenClaims{
		Generation: s.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return totalsdk.Tokens{}, err
	}

	refresh := uuid.NewString()
	s.refreshTokens[refresh] = true

	return totalsdk.Tokens{IDToken: idToken, RefreshToken: refresh}, nil
}

func (s *Server) login(ctx *gin.Context) {
	var body totalsdk.LoginRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if body.Password != s.password {
		abortWithError(ctx, http.StatusUnauthorized, codeUnauthorized, "Parola incorecta")
		return
	}

	tokens, err := s.issueTokensLocked()
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, codeInvalidRequest, err.Error())
		return
	}

	ctx.PureJSON(http.StatusOK, totalsdk.AuthResponse{
		Tokens: tokens,
		User:   map[string]any{"username": "admin"},
	})
}

func (s *Server) refreshToken(ctx *gin.Context) {
	var body totalsdk.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.refreshTokens[body.RefreshToken] {
		abortWithError(ctx, http.StatusUnauthorized, codeUnauthorized, "refresh token invalid")
		return
	}
	delete(s.refreshTokens, body.RefreshToken)

	tokens, err := s.issueTokensLocked()
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, codeInvalidRequest, err.Error())
		return
	}

	ctx.PureJSON(http.StatusOK, totalsdk.AuthResponse{Tokens: tokens})
}

func (s *Server) requireAuth(ctx *gin.Context) {
	header := ctx.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		abortWithError(ctx, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
		return
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		abortWithError(ctx, http.StatusUnauthorized, codeUnauthorized, "invalid token")
		return
	}

	s.mu.Lock()
	current := s.generation
	s.mu.Unlock()

	if claims.Generation != current {
		abortWithError(ctx, http.StatusUnauthorized, codeUnauthorized, "token revoked")
		return
	}

	ctx.Next()
}
