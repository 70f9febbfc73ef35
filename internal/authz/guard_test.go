package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type stubResolver struct {
	subject string
	email   string
	err     error
}

func (s stubResolver) Resolve(ctx context.Context, r *http.Request) (string, string, error) {
	return s.subject, s.email, s.err
}

type stubRoles struct {
	grants []Grant
	err    error
}

func (s stubRoles) RolesForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error) {
	return s.grants, s.err
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestGuardUnauthenticated(t *testing.T) {
	calls := 0
	guard := NewGuard(stubResolver{err: ErrNoIdentity}, stubResolver{err: ErrNoIdentity}, stubRoles{}, nil)

	for name, h := range map[string]http.HandlerFunc{
		"require":   guard.Require(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ }),
		"session":   guard.RequireSession(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ }),
		"admin":     guard.RequireAdmin(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ }),
		"moderator": guard.RequireModerator(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ }),
	} {
		res := httptest.NewRecorder()
		h(res, httptest.NewRequest(http.MethodGet, "/", nil))
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, res.Code)
		}
		if decodeError(t, res) == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
	if calls != 0 {
		t.Fatalf("handler invoked %d times, want 0", calls)
	}
}

func TestGuardSessionUnauthenticatedMessage(t *testing.T) {
	guard := NewGuard(stubResolver{err: ErrNoIdentity}, stubResolver{err: ErrNoIdentity}, stubRoles{}, nil)
	res := httptest.NewRecorder()
	guard.RequireSession(func(w http.ResponseWriter, r *http.Request, id Identity) {})(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := decodeError(t, res); got != "please sign in" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGuardForbidden(t *testing.T) {
	subject := uuid.New()
	calls := 0
	guard := NewGuard(
		stubResolver{subject: subject.String(), email: "u@arenahub.gg"},
		stubResolver{err: ErrNoIdentity},
		stubRoles{grants: []Grant{{UserID: subject, Role: RoleUser}}},
		nil,
	)

	res := httptest.NewRecorder()
	guard.RequireAdmin(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ })(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	guard.RequireModerator(func(w http.ResponseWriter, r *http.Request, id Identity) { calls++ })(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if got := decodeError(t, res); got != "moderator access required" {
		t.Fatalf("unexpected message %q", got)
	}
	if calls != 0 {
		t.Fatalf("handler invoked %d times, want 0", calls)
	}
}

func TestGuardPassesIdentityAndParams(t *testing.T) {
	subject := uuid.New()
	guard := NewGuard(
		stubResolver{subject: subject.String(), email: "mod@arenahub.gg"},
		stubResolver{err: ErrNoIdentity},
		stubRoles{grants: []Grant{{UserID: subject, Role: RoleModerator}}},
		nil,
	)

	calls := 0
	handler := guard.RequireModerator(func(w http.ResponseWriter, r *http.Request, id Identity) {
		calls++
		if id.UserID != subject {
			t.Fatalf("identity user = %s, want %s", id.UserID, subject)
		}
		if id.Email != "mod@arenahub.gg" {
			t.Fatalf("unexpected email %q", id.Email)
		}
		if r.URL.Query().Get("team") != "42" {
			t.Fatal("route params were not passed through")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	res := httptest.NewRecorder()
	handler(res, httptest.NewRequest(http.MethodGet, "/?team=42", nil))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if calls != 1 {
		t.Fatalf("handler invoked %d times, want exactly 1", calls)
	}
}

func TestGuardRoleLookupFailure(t *testing.T) {
	guard := NewGuard(
		stubResolver{subject: uuid.NewString()},
		stubResolver{err: ErrNoIdentity},
		stubRoles{err: errors.New("connection refused")},
		nil,
	)

	res := httptest.NewRecorder()
	guard.Require(func(w http.ResponseWriter, r *http.Request, id Identity) {
		t.Fatal("handler must not run")
	})(res, httptest.NewRequest(http.MethodGet, "/", nil))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if got := decodeError(t, res); got != "internal error" {
		t.Fatalf("store detail leaked: %q", got)
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	subject := uuid.New()
	guard := NewGuard(
		stubResolver{subject: subject.String()},
		stubResolver{err: ErrNoIdentity},
		stubRoles{grants: []Grant{{UserID: subject, Role: RoleAdmin}}},
		nil,
	)

	res := httptest.NewRecorder()
	guard.RequireAdmin(func(w http.ResponseWriter, r *http.Request, id Identity) {
		panic("boom")
	})(res, httptest.NewRequest(http.MethodGet, "/", nil))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestGuardMalformedSubject(t *testing.T) {
	guard := NewGuard(stubResolver{subject: "not-a-uuid"}, stubResolver{err: ErrNoIdentity}, stubRoles{}, nil)
	res := httptest.NewRecorder()
	guard.Require(func(w http.ResponseWriter, r *http.Request, id Identity) {
		t.Fatal("handler must not run")
	})(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}
