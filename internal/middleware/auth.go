package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token and returns the identity it carries.
type TokenVerifier interface {
	VerifyToken(token string) (userID, email string, err error)
}

// TokenRevocations reports tokens invalidated before their natural expiry.
type TokenRevocations interface {
	Revoked(ctx context.Context, token string) (bool, error)
}

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxEmail
	ctxToken
)

// UserID returns the authenticated user's id, or "" outside RequireAuth.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}

// Email returns the authenticated user's email.
func Email(ctx context.Context) string {
	v, _ := ctx.Value(ctxEmail).(string)
	return v
}

// BearerToken returns the raw token the request authenticated with.
func BearerToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxToken).(string)
	return v
}

// RequireAuth validates the Authorization header and injects the user's
// identity into the request context. Requests with a missing, malformed,
// expired, or revoked token are rejected before any handler runs.
func RequireAuth(tokens TokenVerifier, revocations TokenRevocations) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing or invalid authorization header")
				return
			}

			userID, email, err := tokens.VerifyToken(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.Revoked(r.Context(), token)
				if err != nil || revoked {
					unauthorized(w, "invalid or expired token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxEmail, email)
			ctx = context.WithValue(ctx, ctxToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
