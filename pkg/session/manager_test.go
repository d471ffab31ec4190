package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialbill/pkg/session"
)

const userID = "4f1c2a52-1d5e-4b7e-9a51-2f1b0f6f1a11"

func signIn(t *testing.T, m *session.Manager) (*session.Session, *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	sess, err := m.Authenticate(context.Background(), rec, userID)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return sess, cookies[0]
}

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("issues cookie and resolves both transports", func(t *testing.T) {
		t.Parallel()

		m := session.New(session.NewMemoryStore())
		sess, cookie := signIn(t, m)

		assert.Equal(t, "session", cookie.Name)
		assert.Equal(t, sess.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Len(t, sess.Token, 43)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		got, err := m.Get(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+sess.Token)
		got, err = m.Get(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("destroy revokes the token", func(t *testing.T) {
		t.Parallel()

		m := session.New(session.NewMemoryStore())
		sess, _ := signIn(t, m)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sess.Token)
		rec := httptest.NewRecorder()
		require.NoError(t, m.Destroy(context.Background(), rec, req))

		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Negative(t, cleared[0].MaxAge)

		_, err := m.Get(context.Background(), req)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expired sessions are not found", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		m := session.NewFromConfig(session.Config{CookieName: "sid", TTL: time.Hour}, session.NewMemoryStore(),
			session.WithClock(func() time.Time { return now }))
		sess, cookie := signIn(t, m)
		assert.Equal(t, "sid", cookie.Name)
		assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
		assert.True(t, sess.IsExpired(now.Add(time.Hour)))
		assert.False(t, sess.IsExpired(now.Add(time.Minute)))
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		m := session.New(session.NewMemoryStore())
		_, err := m.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	m := session.New(session.NewMemoryStore())
	sess, _ := signIn(t, m)

	unauthorized := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	handler := m.Middleware(nil)(session.RequireUser(unauthorized)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.UserIDFromContext(r.Context())
		assert.True(t, ok)
		_, _ = w.Write([]byte(id))
	})))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogExtractor(t *testing.T) {
	t.Parallel()

	extract := session.LogExtractor()
	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(session.WithUserID(context.Background(), userID))
	assert.True(t, ok)
	assert.Equal(t, "user_id", attr.Key)
}
