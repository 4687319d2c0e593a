package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status code and writes it as ErrorBody.
// Internal failures are logged and reported without details.
func WriteError(w http.ResponseWriter, err error, log *logger.Logger) {
	status, message := Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("HTTP: request failed", "status", status, "error", err.Error())
	}
	WriteJSON(w, status, ErrorBody{StatusCode: status, Message: message})
}

// Status returns the HTTP status and client-facing message for err.
func Status(err error) (int, string) {
	var ie *model.InternalError

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrWrongOrExpiredCode):
		return http.StatusBadRequest, model.ErrWrongOrExpiredCode.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid email or password"
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, model.ErrUserNotFound.Error()
	case errors.Is(err, model.ErrEmailTaken):
		return http.StatusConflict, model.ErrEmailTaken.Error()
	case errors.Is(err, model.ErrProviderConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, model.ErrExpiredToken):
		return http.StatusUnauthorized, model.ErrExpiredToken.Error()
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized, model.ErrUnauthorized.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, model.ErrForbidden.Error()
	case errors.As(err, &ie) && ie.Timeout():
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, model.ErrInternal.Error()
	}
}
