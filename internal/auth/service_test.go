package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noah-isme/backend-importa/internal/common"
)

func newService(t *testing.T, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:         "test-secret",
		AccessTokenTTL: 15 * time.Minute,
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, now)

	token, expiresAt, err := svc.IssueAccessToken("ops-maria")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got, want := expiresAt, now.Add(15*time.Minute); !got.Equal(want) {
		t.Fatalf("expiry %s, want %s", got, want)
	}

	subject, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if subject != "ops-maria" {
		t.Fatalf("subject %q", subject)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, issued)
	token, _, err := svc.IssueAccessToken("ops-maria")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := newService(t, issued.Add(time.Hour))
	if _, err := later.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, now)
	token, _, err := svc.IssueAccessToken("ops-maria")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewService(Config{Secret: "different-secret", Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := other.ParseAccessToken(token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, now)
	token, _, err := svc.IssueAccessToken("ops-maria")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seenUser string
	handler := Middleware{Service: svc}.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if seenUser != "ops-maria" {
		t.Fatalf("user %q", seenUser)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
