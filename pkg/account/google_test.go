package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/trialbill/pkg/account"
)

type fakeGoogle struct {
	*httptest.Server
	profile map[string]any
}

func newFakeGoogle(t *testing.T, profile map[string]any) *fakeGoogle {
	t.Helper()

	f := &fakeGoogle{profile: profile}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGoogle) config() account.GoogleConfig {
	return account.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Scopes:       []string{"email"},
		StateTTL:     time.Minute,
		VerifiedOnly: true,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.URL + "/auth",
			TokenURL:  f.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: f.URL + "/userinfo",
	}
}

func authState(t *testing.T, svc account.Service) string {
	t.Helper()

	raw, err := svc.GoogleAuthURL(context.Background())
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestGoogleCallback(t *testing.T) {
	t.Parallel()

	t.Run("creates user on first sign-in", func(t *testing.T) {
		t.Parallel()

		g := newFakeGoogle(t, map[string]any{"id": "g-1", "email": "Jane@Example.com", "verified_email": true, "name": "Jane"})
		store := account.NewMemoryStore()
		created := 0
		svc := newService(t, store,
			account.WithGoogleOAuth(g.config(), store),
			account.WithAfterCreate(func(context.Context, *account.User) error { created++; return nil }),
		)

		user, err := svc.GoogleCallback(context.Background(), "good-code", authState(t, svc))
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "g-1", user.GoogleID)
		assert.False(t, user.HasPassword())

		again, err := svc.GoogleCallback(context.Background(), "good-code", authState(t, svc))
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, 1, created)
	})

	t.Run("state is single use", func(t *testing.T) {
		t.Parallel()

		g := newFakeGoogle(t, map[string]any{"id": "g-2", "email": "a@example.com", "verified_email": true})
		store := account.NewMemoryStore()
		svc := newService(t, store, account.WithGoogleOAuth(g.config(), store))

		state := authState(t, svc)
		_, err := svc.GoogleCallback(context.Background(), "good-code", state)
		require.NoError(t, err)

		_, err = svc.GoogleCallback(context.Background(), "good-code", state)
		assert.ErrorIs(t, err, account.ErrInvalidState)

		_, err = svc.GoogleCallback(context.Background(), "good-code", "forged")
		assert.ErrorIs(t, err, account.ErrInvalidState)
	})

	t.Run("bad code", func(t *testing.T) {
		t.Parallel()

		g := newFakeGoogle(t, map[string]any{"id": "g-3", "email": "b@example.com", "verified_email": true})
		store := account.NewMemoryStore()
		svc := newService(t, store, account.WithGoogleOAuth(g.config(), store))

		_, err := svc.GoogleCallback(context.Background(), "bad-code", authState(t, svc))
		assert.ErrorIs(t, err, account.ErrInvalidCode)
	})

	t.Run("unverified email", func(t *testing.T) {
		t.Parallel()

		g := newFakeGoogle(t, map[string]any{"id": "g-4", "email": "c@example.com", "verified_email": false})
		store := account.NewMemoryStore()
		svc := newService(t, store, account.WithGoogleOAuth(g.config(), store))

		_, err := svc.GoogleCallback(context.Background(), "good-code", authState(t, svc))
		assert.ErrorIs(t, err, account.ErrUnverifiedEmail)
	})

	t.Run("does not take over password accounts", func(t *testing.T) {
		t.Parallel()

		g := newFakeGoogle(t, map[string]any{"id": "g-5", "email": "jane@example.com", "verified_email": true})
		store := account.NewMemoryStore()
		svc := newService(t, store, account.WithGoogleOAuth(g.config(), store))
		_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "correct horse")
		require.NoError(t, err)

		_, err = svc.GoogleCallback(context.Background(), "good-code", authState(t, svc))
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})
}
