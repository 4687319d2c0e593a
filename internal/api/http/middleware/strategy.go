package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/cookie"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/response"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/oauth"
)

// Strategy resolves the user a sign in request acts for.
type Strategy interface {
	Name() string
	Authenticate(w http.ResponseWriter, r *http.Request) (model.User, error)
}

// CredentialVerifier checks email and password.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (model.User, error)
}

// RefreshGuard checks a refresh token against the current session.
type RefreshGuard interface {
	Refresh(ctx context.Context, raw string) (model.User, error)
}

// OAuthExchanger completes an OAuth authorization code flow.
type OAuthExchanger interface {
	Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (model.Profile, error)
}

// IdentityResolver maps an OAuth profile onto a stored user.
type IdentityResolver interface {
	Resolve(ctx context.Context, profile model.Profile) (model.User, error)
}

// LocalStrategy authenticates by the email and password in the JSON body.
type LocalStrategy struct {
	verifier CredentialVerifier
}

func NewLocalStrategy(verifier CredentialVerifier) *LocalStrategy {
	return &LocalStrategy{verifier: verifier}
}

func (s *LocalStrategy) Name() string { return "local" }

func (s *LocalStrategy) Authenticate(_ http.ResponseWriter, r *http.Request) (model.User, error) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.User{}, &model.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	if body.Email == "" || body.Password == "" {
		return model.User{}, &model.ValidationError{Field: "credentials", Reason: "email and password are required"}
	}

	return s.verifier.Verify(r.Context(), body.Email, body.Password)
}

// RefreshStrategy authenticates by the refresh token cookie or bearer header.
type RefreshStrategy struct {
	guard RefreshGuard
}

func NewRefreshStrategy(guard RefreshGuard) *RefreshStrategy {
	return &RefreshStrategy{guard: guard}
}

func (s *RefreshStrategy) Name() string { return "refresh" }

func (s *RefreshStrategy) Authenticate(_ http.ResponseWriter, r *http.Request) (model.User, error) {
	return s.guard.Refresh(r.Context(), cookie.Token(r, cookie.Refresh))
}

// OAuthStrategy authenticates the callback of an OAuth provider.
type OAuthStrategy struct {
	provider  string
	exchanger OAuthExchanger
	resolver  IdentityResolver
	secure    bool
}

func NewOAuthStrategy(provider string, exchanger OAuthExchanger, resolver IdentityResolver, secure bool) *OAuthStrategy {
	return &OAuthStrategy{
		provider:  provider,
		exchanger: exchanger,
		resolver:  resolver,
		secure:    secure,
	}
}

func (s *OAuthStrategy) Name() string { return "oauth:" + s.provider }

func (s *OAuthStrategy) Authenticate(w http.ResponseWriter, r *http.Request) (model.User, error) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return model.User{}, fmt.Errorf("%w: provider returned %s", model.ErrUnauthorized, e)
	}

	env := oauth.NewHTTPEnv(oauth.CookieScope, s.secure, w, r)
	profile, err := s.exchanger.Exchange(r.Context(), env, s.provider, q.Get("code"), q.Get("state"))
	if err != nil {
		if errors.Is(err, oauth.ErrAuthFailed) || errors.Is(err, oauth.ErrProviderNotFound) {
			return model.User{}, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
		}
		return model.User{}, model.NewInternalError("oauth exchange", err)
	}

	return s.resolver.Resolve(r.Context(), profile)
}

// StrategyObserver is notified about every sign in attempt.
type StrategyObserver interface {
	ObserveSignIn(strategy string, err error)
}

// SignIn runs strategy before next and stores the resolved user in the request context.
type SignIn struct {
	contextManager model.ContextManager
	observer       StrategyObserver
	logger         *logger.Logger
}

func NewSignIn(contextManager model.ContextManager, observer StrategyObserver, logger *logger.Logger) *SignIn {
	return &SignIn{contextManager: contextManager, observer: observer, logger: logger}
}

// With returns a middleware authenticating requests with strategy.
func (m *SignIn) With(strategy Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := strategy.Authenticate(w, r)
			if m.observer != nil {
				m.observer.ObserveSignIn(strategy.Name(), err)
			}
			if err != nil {
				m.logger.Info("HTTP: authentication failed",
					"strategy", strategy.Name(),
					"error", err.Error())
				response.WriteError(w, err, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(m.contextManager.SetUserToContext(r.Context(), user)))
		})
	}
}
