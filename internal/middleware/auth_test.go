package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	userID string
	email  string
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return f.userID, f.email, nil
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) Revoked(ctx context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

func protectedEcho(t *testing.T, verifier TokenVerifier, revocations TokenRevocations) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(verifier, revocations)(inner)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	h := protectedEcho(t, &fakeVerifier{userID: "u1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	h := protectedEcho(t, &fakeVerifier{userID: "u1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	h := protectedEcho(t, &fakeVerifier{err: errors.New("expired")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]bool{"tok": true}}
	h := protectedEcho(t, &fakeVerifier{userID: "u1", email: "a@b.c"}, revocations)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InjectsIdentity(t *testing.T) {
	var gotUserID, gotEmail, gotToken string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
		gotEmail = Email(r.Context())
		gotToken = BearerToken(r.Context())
	})
	h := RequireAuth(&fakeVerifier{userID: "u1", email: "a@b.c"}, nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", gotUserID)
	require.Equal(t, "a@b.c", gotEmail)
	require.Equal(t, "tok", gotToken)
}

func TestAccessors_OutsideMiddleware(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, UserID(ctx))
	require.Empty(t, Email(ctx))
	require.Empty(t, BearerToken(ctx))
}
