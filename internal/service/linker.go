package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// IdentityLinker maps an external OAuth profile onto a stored user.
type IdentityLinker struct {
	users   model.UserStore
	timeout time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

func NewIdentityLinker(users model.UserStore, timeout time.Duration, logger *logger.Logger) *IdentityLinker {
	return &IdentityLinker{
		users:   users,
		timeout: orDefault(timeout),
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns the user owning profile.Email, creating it on first sign in.
// A user bound to another provider yields *model.ProviderConflictError.
func (l *IdentityLinker) Resolve(ctx context.Context, profile model.Profile) (model.User, error) {
	email := model.NormalizeEmail(profile.Email)

	user, err := l.lookup(ctx, email)
	if err == nil {
		return l.match(user, profile)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	now := l.now().UTC()
	created, err := call(ctx, l.timeout, func(ctx context.Context) (model.User, error) {
		return l.users.Create(ctx, model.User{
			ID:            uuid.New(),
			Email:         email,
			Username:      profile.DisplayName,
			Provider:      profile.Provider,
			Roles:         model.DefaultRoles(),
			ProfileImage:  profile.PictureURL,
			EmailVerified: profile.EmailVerified,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	})
	if errors.Is(err, model.ErrEmailTaken) {
		// Lost a race with a concurrent first sign in.
		user, err := l.lookup(ctx, email)
		if err != nil {
			return model.User{}, err
		}
		return l.match(user, profile)
	}
	if err != nil {
		l.logger.Error("Identity linker: failed to create user",
			"email", email,
			"provider", string(profile.Provider),
			"error", err.Error())
		return model.User{}, model.NewInternalError("create user", err)
	}

	l.logger.Info("Identity linker: user created",
		"user_id", created.ID,
		"provider", string(created.Provider))

	return created.Public(), nil
}

func (l *IdentityLinker) lookup(ctx context.Context, email string) (model.User, error) {
	user, err := call(ctx, l.timeout, func(ctx context.Context) (model.User, error) {
		return l.users.GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, err
		}
		l.logger.Error("Identity linker: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.NewInternalError("get user by email", err)
	}
	return user, nil
}

func (l *IdentityLinker) match(user model.User, profile model.Profile) (model.User, error) {
	if user.Provider != profile.Provider {
		l.logger.Info("Identity linker: provider conflict",
			"user_id", user.ID,
			"existing", string(user.Provider),
			"requested", string(profile.Provider))
		return model.User{}, &model.ProviderConflictError{Existing: user.Provider}
	}
	return user.Public(), nil
}
