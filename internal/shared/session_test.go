package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sess.SetUser("user-1", "user@example.com")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "test_session", cookies[0].Name)
	require.Equal(t, sess.ID, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	loaded, err := sm.LoadByToken(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "user-1", loaded.User())
	require.Equal(t, "user@example.com", loaded.Email())
	require.Equal(t, "dark", loaded.Get("theme"))
}

func TestLoadByTokenUnknown(t *testing.T) {
	sm := newTestSessionManager(t)

	_, err := sm.LoadByToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sm.LoadByToken(context.Background(), "  ")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDestroyRemovesSession(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-2", "bye@example.com")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)

	_, err = sm.LoadByToken(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFlashQueueOrder(t *testing.T) {
	sess := &Session{}
	sess.AddFlash(FlashMessage{Kind: "success", Message: "first"})
	sess.AddFlash(FlashMessage{Kind: "error", Message: "second"})

	flash := sess.PopFlash()
	require.NotNil(t, flash)
	require.Equal(t, "first", flash.Message)

	flash = sess.PopFlash()
	require.NotNil(t, flash)
	require.Equal(t, "second", flash.Message)
	require.Nil(t, sess.PopFlash())
}

func TestCommitDrainsFlashes(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "saved"})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	loaded, err := sm.LoadByToken(ctx, sess.ID)
	require.NoError(t, err)
	require.Nil(t, loaded.PopFlash())
}
