package session

import (
	"errors"
	"net/http"
)

// Middleware resolves the session, if any, and stores its user ID in the
// request context. Store failures other than a missing session are passed
// to onError when it is non-nil; the request continues unauthenticated.
func (m *Manager) Middleware(onError func(*http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Get(r.Context(), r)
			if err != nil {
				if onError != nil && !errors.Is(err, ErrSessionNotFound) {
					onError(r, err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), sess.UserID)))
		})
	}
}

// RequireUser rejects requests without a signed-in user.
func RequireUser(unauthorized http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				unauthorized.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
