package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// SessionValidator checks a refresh token against the stored session.
type SessionValidator interface {
	Validate(ctx context.Context, userID uuid.UUID, refreshToken string) (bool, error)
}

// UserLoader loads the user a refresh token belongs to.
type UserLoader interface {
	Me(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Check is an authorization rule applied to an authenticated principal.
type Check func(model.Principal) error

// Role builds a Check that requires the principal to hold role.
func Role(required model.Role) Check {
	return func(p model.Principal) error {
		if !p.HasRole(required) {
			return fmt.Errorf("%w: role %q required", model.ErrForbidden, required)
		}
		return nil
	}
}

// Guard performs the per-request token checks.
type Guard struct {
	tokens   model.TokenIssuer
	sessions SessionValidator
	users    UserLoader
	logger   *logger.Logger
}

func New(tokens model.TokenIssuer, sessions SessionValidator, users UserLoader, logger *logger.Logger) *Guard {
	return &Guard{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// Access verifies an access token and applies checks to its principal.
// Token failures wrap model.ErrUnauthorized together with the token error,
// failed checks return their own error.
func (g *Guard) Access(raw string, checks ...Check) (model.Principal, error) {
	if raw == "" {
		return model.Principal{}, fmt.Errorf("%w: missing access token", model.ErrUnauthorized)
	}

	p, err := g.tokens.VerifyAccess(raw)
	if err != nil {
		g.logger.Debug("Guard: access token rejected", "error", err.Error())
		return model.Principal{}, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
	}

	for _, check := range checks {
		if err := check(p); err != nil {
			g.logger.Info("Guard: access denied",
				"user_id", p.UserID,
				"error", err.Error())
			return model.Principal{}, err
		}
	}

	return p, nil
}

// Refresh verifies a refresh token, matches it against the current session
// and returns the owning user.
func (g *Guard) Refresh(ctx context.Context, raw string) (model.User, error) {
	if raw == "" {
		return model.User{}, fmt.Errorf("%w: missing refresh token", model.ErrUnauthorized)
	}

	userID, err := g.tokens.VerifyRefresh(raw)
	if err != nil {
		g.logger.Debug("Guard: refresh token rejected", "error", err.Error())
		return model.User{}, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
	}

	ok, err := g.sessions.Validate(ctx, userID, raw)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		g.logger.Info("Guard: refresh token does not match session", "user_id", userID)
		return model.User{}, fmt.Errorf("%w: session revoked or replaced", model.ErrUnauthorized)
	}

	user, err := g.users.Me(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
		}
		return model.User{}, err
	}

	return user, nil
}
