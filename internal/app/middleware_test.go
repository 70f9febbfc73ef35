package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/shared"
)

type middlewareFixture struct {
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	handler  http.Handler
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	stack := MiddlewareStack(MiddlewareConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionManager: sessions,
		CSRFManager:    csrf,
	})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return &middlewareFixture{sessions: sessions, csrf: csrf, handler: handler}
}

func (f *middlewareFixture) seededSessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := f.sessions.Load(ctx, req)
	require.NoError(t, err)
	_, err = f.csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, f.sessions.Commit(ctx, rec, req, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestCSRFMissingTokenRejected(t *testing.T) {
	f := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "csrf token missing")
}

func TestCSRFMismatchRejected(t *testing.T) {
	f := newMiddlewareFixture(t)
	cookie := f.seededSessionCookie(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("csrf_token=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "csrf token mismatch")
}

func TestCSRFSkipsAPIRoutes(t *testing.T) {
	f := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFSkipsSafeMethods(t *testing.T) {
	f := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
