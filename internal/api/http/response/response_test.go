package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/testutil"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", &model.ValidationError{Field: "email", Reason: "must be a valid email address"}, http.StatusBadRequest, "invalid email: must be a valid email address"},
		{"wrong code", model.ErrWrongOrExpiredCode, http.StatusBadRequest, "wrong code provided"},
		{"credentials", model.ErrInvalidCredentials, http.StatusBadRequest, "invalid email or password"},
		{"user not found", model.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"email taken", model.ErrEmailTaken, http.StatusConflict, "email is already taken"},
		{"provider conflict", &model.ProviderConflictError{Existing: model.OAuthProvider("google")}, http.StatusConflict, "your account is already linked with google"},
		{"expired", fmt.Errorf("%w: %w", model.ErrUnauthorized, model.ErrExpiredToken), http.StatusUnauthorized, "token expired"},
		{"unauthorized", fmt.Errorf("%w: missing access token", model.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", fmt.Errorf("%w: role required", model.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"timeout", model.NewInternalError("load session", context.DeadlineExceeded), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{"internal", model.NewInternalError("load session", errors.New("refused")), http.StatusInternalServerError, "internal error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := Status(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.NewInternalError("store session", errors.New("dial tcp 10.0.0.1:6379")), testutil.MakeNoopLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
}
