package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
	"github.com/dmitrymomot/trialbill/pkg/validator"
)

var (
	ErrUnauthorized         = errors.New("authentication required")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrNotFound             = errors.New("resource not found")
	ErrRateLimited          = errors.New("too many requests")
)

const (
	codeUnauthorized = "unauthorized"
	codeRateLimited  = "rate_limited"
)

// errorDetail maps err to a status code and the envelope error.
func errorDetail(err error) (int, *ErrorDetail) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, &ErrorDetail{
			Code:    string(subscription.KindValidation),
			Message: "validation failed",
			Details: verrs.Map(),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, &ErrorDetail{Code: codeRateLimited, Message: err.Error()}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, &ErrorDetail{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, account.ErrEmailTaken):
		return http.StatusBadRequest, &ErrorDetail{
			Code:    string(subscription.KindValidation),
			Message: err.Error(),
			Details: map[string][]string{"email": {err.Error()}},
		}
	case errors.Is(err, ErrInvalidJSON),
		errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, account.ErrInvalidState),
		errors.Is(err, account.ErrInvalidCode),
		errors.Is(err, account.ErrUnverifiedEmail),
		errors.Is(err, account.ErrNoEmail):
		return http.StatusBadRequest, &ErrorDetail{Code: string(subscription.KindValidation), Message: err.Error()}
	case errors.Is(err, account.ErrProviderProfile):
		return http.StatusBadGateway, &ErrorDetail{Code: string(subscription.KindGateway), Message: err.Error()}
	case errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, account.ErrGoogleDisabled),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: string(subscription.KindNotFound), Message: err.Error()}
	}

	kind := subscription.KindOf(err)
	switch kind {
	case subscription.KindValidation:
		return http.StatusBadRequest, &ErrorDetail{Code: string(kind), Message: err.Error()}
	case subscription.KindInvalidState:
		return http.StatusConflict, &ErrorDetail{Code: string(kind), Message: err.Error()}
	case subscription.KindGateway:
		return http.StatusBadGateway, &ErrorDetail{Code: string(kind), Message: "billing provider request failed"}
	case subscription.KindNotFound:
		return http.StatusNotFound, &ErrorDetail{Code: string(kind), Message: "subscription record not found"}
	case subscription.KindStore:
		return http.StatusInternalServerError, &ErrorDetail{Code: string(kind), Message: "storage failure"}
	}
	return http.StatusInternalServerError, &ErrorDetail{Code: string(subscription.KindUnknown), Message: http.StatusText(http.StatusInternalServerError)}
}
