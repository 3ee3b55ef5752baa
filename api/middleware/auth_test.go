package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
)

type stubVerifier struct {
	token *fbauth.Token
	err   error
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	return s.token, s.err
}

func TestAuthMissingHeader(t *testing.T) {
	handler := Auth(&stubVerifier{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	handler := Auth(&stubVerifier{err: errors.New("expired")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	verifier := &stubVerifier{token: &fbauth.Token{
		UID:    "fb-123",
		Claims: map[string]any{"user_id": "11111111-2222-3333-4444-555555555555"},
	}}

	var seenFirebaseID, seenUserID string
	handler := Auth(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenFirebaseID = FirebaseIDFromContext(r.Context())
		seenUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if seenFirebaseID != "fb-123" {
		t.Fatalf("firebase id not seeded, got %q", seenFirebaseID)
	}
	if seenUserID != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("user id not seeded, got %q", seenUserID)
	}
}
