package service

import (
	"context"
	"errors"
	"time"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// CredentialVerifier checks email and password against the user store.
type CredentialVerifier struct {
	users   model.UserStore
	hasher  PasswordHasher
	timeout time.Duration
	logger  *logger.Logger
}

func NewCredentialVerifier(users model.UserStore, hasher PasswordHasher, timeout time.Duration, logger *logger.Logger) *CredentialVerifier {
	return &CredentialVerifier{
		users:   users,
		hasher:  hasher,
		timeout: orDefault(timeout),
		logger:  logger,
	}
}

// Verify returns the user with the given credentials. The returned user never carries the password hash.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (model.User, error) {
	email = model.NormalizeEmail(email)

	user, err := call(ctx, v.timeout, func(ctx context.Context) (model.User, error) {
		return v.users.GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			v.logger.Info("Credentials: user not found", "email", email)
			return model.User{}, model.ErrUserNotFound
		}
		v.logger.Error("Credentials: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.NewInternalError("get user by email", err)
	}

	if !user.Provider.IsLocal() || user.PasswordHash == "" {
		v.logger.Info("Credentials: password sign in for non-local user",
			"email", email,
			"provider", string(user.Provider))
		return model.User{}, model.ErrInvalidCredentials
	}

	ok, err := v.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		v.logger.Error("Credentials: stored password hash is unreadable",
			"user_id", user.ID,
			"error", err.Error())
		return model.User{}, model.ErrInvalidCredentials
	}
	if !ok {
		v.logger.Info("Credentials: wrong password", "user_id", user.ID)
		return model.User{}, model.ErrInvalidCredentials
	}

	return user.Public(), nil
}
