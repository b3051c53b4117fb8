package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type authCtxKey int

const reviewerKey authCtxKey = 1

// Roles allowed on reviewer routes.
const (
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// Claims identify a staff reviewer.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 reviewer token. The subject is recorded as the
// reviewer on audit events.
func SignToken(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret []byte, tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func (s *Server) requireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.secret) == 0 {
			writeError(w, http.StatusUnauthorized, "reviewer auth not configured")
			return
		}
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		c, err := parseToken(s.secret, strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if c.Role != RoleCounselor && c.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "reviewer role required")
			return
		}
		ctx := context.WithValue(r.Context(), reviewerKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ReviewerFromContext returns the authenticated reviewer's subject.
func ReviewerFromContext(ctx context.Context) (string, bool) {
	if c, ok := ctx.Value(reviewerKey).(*Claims); ok && c.Subject != "" {
		return c.Subject, true
	}
	return "", false
}
