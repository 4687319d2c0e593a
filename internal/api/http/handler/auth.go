package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/cookie"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/response"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/oauth"
	"github.com/dtroode/shopkeeper-auth/internal/service"
)

// AuthService is the account flow facade used by the auth handlers.
type AuthService interface {
	Signup(ctx context.Context, params service.SignupParams) (model.User, error)
	SignIn(ctx context.Context, user model.User) (model.TokenPair, error)
	Refresh(ctx context.Context, user model.User) (model.IssuedToken, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
	SendEmailVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, params service.ResetPasswordParams) error
	Me(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// LoginURLBuilder starts an OAuth authorization code flow.
type LoginURLBuilder interface {
	LoginURL(env oauth.Env, provider string) (string, error)
}

// Auth serves the /auth endpoints.
type Auth struct {
	service        AuthService
	oauth          LoginURLBuilder
	contextManager model.ContextManager
	secure         bool
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(service AuthService, oauth LoginURLBuilder, contextManager model.ContextManager, secureCookies bool, logger *logger.Logger) *Auth {
	return &Auth{
		service:        service,
		oauth:          oauth,
		contextManager: contextManager,
		secure:         secureCookies,
		logger:         logger,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup handles POST /auth/signup.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Signup(context.WithoutCancel(r.Context()), service.SignupParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusCreated, user)
}

// SignIn handles POST /auth/signin and GET /auth/google/callback once a
// strategy has resolved the user.
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		response.WriteError(w, model.ErrUnauthorized, h.logger)
		return
	}

	pair, err := h.service.SignIn(context.WithoutCancel(r.Context()), user)
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	cookie.Set(w, cookie.Access, pair.Access, h.secure)
	cookie.Set(w, cookie.Refresh, pair.Refresh, h.secure)

	response.WriteJSON(w, http.StatusOK, user)
}

// Me handles GET /auth.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := h.contextManager.GetPrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, model.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.service.Me(r.Context(), p.UserID)
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

// OAuthLogin returns a handler for GET /auth/<provider> redirecting to the provider.
func (h *Auth) OAuthLogin(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := h.oauth.LoginURL(oauth.NewHTTPEnv(oauth.CookieScope, h.secure, w, r), provider)
		if err != nil {
			response.WriteError(w, err, h.logger)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// SignOut handles POST /auth/signout.
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	p, ok := h.contextManager.GetPrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, model.ErrUnauthorized, h.logger)
		return
	}

	if err := h.service.SignOut(context.WithoutCancel(r.Context()), p.UserID); err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	cookie.Clear(w, cookie.Access, h.secure)
	cookie.Clear(w, cookie.Refresh, h.secure)

	w.WriteHeader(http.StatusOK)
}

// Refresh handles GET /auth/token/refresh once the refresh strategy resolved the user.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		response.WriteError(w, model.ErrUnauthorized, h.logger)
		return
	}

	access, err := h.service.Refresh(r.Context(), user)
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	cookie.Set(w, cookie.Access, access, h.secure)

	response.WriteJSON(w, http.StatusOK, user)
}

// SendEmailVerification handles POST /auth/send-email-verification.
func (h *Auth) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SendEmailVerification(context.WithoutCancel(r.Context()), req.Email); err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, messageResponse{Message: "verification code sent"})
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Auth) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.VerifyEmail(context.WithoutCancel(r.Context()), req.Email, req.Code); err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(context.WithoutCancel(r.Context()), req.Email); err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, messageResponse{Message: "password reset link sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(context.WithoutCancel(r.Context()), service.ResetPasswordParams{
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (h *Auth) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.WriteError(w, &model.ValidationError{Field: "body", Reason: "must be a JSON object"}, h.logger)
		return false
	}
	return true
}
