package api

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/trialbill/pkg/account"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *account.User `json:"user"`
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := bindJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bindJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) googleRedirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.accounts.GoogleAuthURL(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *handlers) googleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		respondError(w, r, h.logger, account.ErrInvalidCode)
		return
	}

	user, err := h.accounts.GoogleCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if h.signInRedirect == "" {
		h.startSession(w, r, user, http.StatusOK)
		return
	}
	if _, err := h.sessions.Authenticate(r.Context(), w, user.ID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, h.signInRedirect, http.StatusFound)
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request, user *account.User, status int) {
	sess, err := h.sessions.Authenticate(r.Context(), w, user.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, status, authResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: user})
}
