package middleware

import (
	"net/http"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/cookie"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/response"
	"github.com/dtroode/shopkeeper-auth/internal/guard"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// AccessGuard verifies access tokens and applies authorization checks.
type AccessGuard interface {
	Access(raw string, checks ...guard.Check) (model.Principal, error)
}

// Authenticate validates access tokens and injects the principal into the request context.
type Authenticate struct {
	guard          AccessGuard
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(guard AccessGuard, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{guard: guard, contextManager: contextManager, logger: logger}
}

// Require returns a middleware that admits requests with a valid access token
// passing every check.
func (m *Authenticate) Require(checks ...guard.Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := m.guard.Access(cookie.Token(r, cookie.Access), checks...)
			if err != nil {
				response.WriteError(w, err, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(m.contextManager.SetPrincipalToContext(r.Context(), p)))
		})
	}
}

// RequireRole admits requests whose principal holds role.
func (m *Authenticate) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return m.Require(guard.Role(role))
}
