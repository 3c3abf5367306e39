package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wolfman30/clinic-portal/internal/session"
)

type stubParser map[string]session.User

func (s stubParser) Parse(token string) (session.User, error) {
	u, ok := s[token]
	if !ok {
		return session.User{}, errors.New("bad token")
	}
	return u, nil
}

var parser = stubParser{
	"nurse-token":   {ID: "n-1", Role: session.RoleNurse},
	"patient-token": {ID: "p-1", Role: session.RolePatient},
}

func TestAuthenticateMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	Authenticate(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	Authenticate(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthenticateStoresSessionUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.Header.Set("Authorization", "Bearer nurse-token")
	rec := httptest.NewRecorder()

	called := false
	Authenticate(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := session.FromContext(r.Context())
		if !ok || user.ID != "n-1" {
			t.Fatalf("expected session user in context, got %#v", user)
		}
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
}

func TestAuthenticateWebsocketQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/schedule?token=patient-token", nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()

	called := false
	Authenticate(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })).ServeHTTP(rec, req)
	if !called {
		t.Fatalf("expected query token to authenticate upgrade, got %d", rec.Code)
	}

	plain := httptest.NewRequest(http.MethodGet, "/api/schedule?token=patient-token", nil)
	rec = httptest.NewRecorder()
	Authenticate(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, plain)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("query token must only work for upgrades, got %d", rec.Code)
	}
}

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	chain := Authenticate(parser)(RequireStaff()(ok))

	tests := []struct {
		token string
		want  int
	}{
		{"nurse-token", http.StatusNoContent},
		{"patient-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.token, tt.want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	RequireStaff()(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}
