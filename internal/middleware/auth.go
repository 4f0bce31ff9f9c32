package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const customerIdKey ctxKey = iota

type unauthorizedResponse struct {
	Reason   string `json:"reason"`
	Redirect string `json:"redirect"`
}

// Authenticate verifies the HS256 bearer token issued by the identity
// provider and stores its subject as the customer id. Requests without a
// valid token are rejected with 401 and a redirect to the sign-in page.
func Authenticate(secret, signInURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerId, err := ParseToken(secret, bearerToken(r))
			if err != nil {
				unauthorized(w, signInURL, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCustomerId(r.Context(), customerId)))
		})
	}
}

func CustomerId(ctx context.Context) string {
	id, _ := ctx.Value(customerIdKey).(string)
	return id
}

func WithCustomerId(ctx context.Context, customerId string) context.Context {
	return context.WithValue(ctx, customerIdKey, customerId)
}

// ParseToken validates the token and returns its subject claim.
func ParseToken(secret, raw string) (string, error) {
	if raw == "" {
		return "", errors.New("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}

	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// NewToken signs a token for the customer. Used for local testing and seeding.
func NewToken(secret, customerId string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   customerId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("middleware.NewToken: %w", err)
	}
	return signed, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func unauthorized(w http.ResponseWriter, signInURL, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(unauthorizedResponse{Reason: reason, Redirect: signInURL})
}
