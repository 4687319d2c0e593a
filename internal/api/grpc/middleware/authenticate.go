package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/shopkeeper-auth/internal/guard"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// AccessGuard verifies access tokens and applies authorization checks.
type AccessGuard interface {
	Access(raw string, checks ...guard.Check) (model.Principal, error)
}

// Authenticate validates bearer tokens and injects the principal into context.
type Authenticate struct {
	guard          AccessGuard
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(guard AccessGuard, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{guard: guard, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the authorization metadata, verifies the access token and
// returns a context carrying its principal.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	var tokenString string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if authHeaders := md.Get("authorization"); len(authHeaders) > 0 {
			tokenString = strings.TrimPrefix(authHeaders[0], "Bearer ")
		}
	}

	p, err := m.guard.Access(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrExpiredToken):
			return nil, status.Error(codes.Unauthenticated, "token expired")
		case errors.Is(err, model.ErrForbidden):
			return nil, status.Error(codes.PermissionDenied, "forbidden")
		default:
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
	}

	return m.contextManager.SetPrincipalToContext(ctx, p), nil
}
