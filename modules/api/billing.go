package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

type beginTrialRequest struct {
	PlanID string `json:"plan_id"`
}

type beginTrialResponse struct {
	Subscription subscription.Description `json:"subscription"`
	CheckoutURL  string                   `json:"checkout_url,omitempty"`
}

type meResponse struct {
	User         *account.User             `json:"user"`
	Subscription *subscription.Description `json:"subscription"`
}

func (h *handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.subs.Plans())
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Get(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			// Session outlived its account.
			err = ErrUnauthorized
		}
		respondError(w, r, h.logger, err)
		return
	}

	desc, err := h.subs.Describe(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, meResponse{User: user, Subscription: desc})
}

func (h *handlers) describe(w http.ResponseWriter, r *http.Request) {
	desc, err := h.subs.Describe(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, desc)
}

func (h *handlers) beginTrial(w http.ResponseWriter, r *http.Request) {
	var req beginTrialRequest
	if err := bindJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	started, err := h.subs.BeginTrial(r.Context(), userID(r), req.PlanID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, beginTrialResponse{
		Subscription: started.Description,
		CheckoutURL:  started.CheckoutURL,
	})
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	if _, err := h.subs.Cancel(r.Context(), userID(r)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.describe(w, r)
}

func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		respondError(w, r, h.logger, errors.Join(ErrInvalidJSON, err))
		return
	}

	if err := h.subs.HandleWebhook(r.Context(), payload, r.Header.Get(h.signatureHeader)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"received": true})
}
