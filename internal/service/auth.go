package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/security"
)

// AuthConfig holds the Auth settings that are not collaborators.
type AuthConfig struct {
	PasswordResetURL string
	CallTimeout      time.Duration
}

// SignupParams is the input of a local sign up.
type SignupParams struct {
	Username string
	Email    string
	Password string
}

// ResetPasswordParams is the input of a password reset.
type ResetPasswordParams struct {
	Token    string
	Password string
}

// Auth implements the account flows on top of the credential, token, session
// and verification code components.
type Auth struct {
	users    model.UserStore
	tokens   model.TokenIssuer
	sessions *Sessions
	codes    *VerificationCodes
	mailer   model.Mailer
	hasher   PasswordHasher
	resetURL string
	timeout  time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

func NewAuth(
	users model.UserStore,
	tokens model.TokenIssuer,
	sessions *Sessions,
	codes *VerificationCodes,
	mailer model.Mailer,
	hasher PasswordHasher,
	cfg AuthConfig,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		codes:    codes,
		mailer:   mailer,
		hasher:   hasher,
		resetURL: cfg.PasswordResetURL,
		timeout:  orDefault(cfg.CallTimeout),
		logger:   logger,
		now:      time.Now,
	}
}

// Signup creates a local user. The returned user carries no password hash.
func (a *Auth) Signup(ctx context.Context, params SignupParams) (model.User, error) {
	email := model.NormalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting user registration", "email", email)

	if err := security.ValidateEmail(email); err != nil {
		return model.User{}, err
	}
	if err := security.ValidateUsername(params.Username); err != nil {
		return model.User{}, err
	}
	if err := security.ValidatePassword(params.Password); err != nil {
		return model.User{}, err
	}

	_, err := call(ctx, a.timeout, func(ctx context.Context) (model.User, error) {
		return a.users.GetByEmail(ctx, email)
	})
	if err == nil {
		a.logger.Info("Auth service: user already exists", "email", email)
		return model.User{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.NewInternalError("get user by email", err)
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return model.User{}, model.NewInternalError("hash password", err)
	}

	now := a.now().UTC()
	user, err := call(ctx, a.timeout, func(ctx context.Context) (model.User, error) {
		return a.users.Create(ctx, model.User{
			ID:           uuid.New(),
			Email:        email,
			Username:     params.Username,
			PasswordHash: hash,
			Provider:     model.ProviderLocal,
			Roles:        model.DefaultRoles(),
			ProfileImage: security.GravatarURL(email),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, err
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, model.NewInternalError("create user", err)
	}

	a.logger.Info("Auth service: user registered", "user_id", user.ID)

	return user.Public(), nil
}

// SignIn mints an access and refresh token for an authenticated user and
// stores the refresh token as the user's only session.
func (a *Auth) SignIn(ctx context.Context, user model.User) (model.TokenPair, error) {
	access, err := a.tokens.IssueAccess(user.ID, user.Roles)
	if err != nil {
		return model.TokenPair{}, model.NewInternalError("issue access token", err)
	}

	refresh, err := a.tokens.IssueRefresh(user.ID)
	if err != nil {
		return model.TokenPair{}, model.NewInternalError("issue refresh token", err)
	}

	if err := a.sessions.Store(ctx, user.ID, refresh.Token); err != nil {
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: user signed in",
		"user_id", user.ID,
		"provider", string(user.Provider))

	return model.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh mints a new access token for a user whose refresh token was accepted.
func (a *Auth) Refresh(_ context.Context, user model.User) (model.IssuedToken, error) {
	access, err := a.tokens.IssueAccess(user.ID, user.Roles)
	if err != nil {
		return model.IssuedToken{}, model.NewInternalError("issue access token", err)
	}

	a.logger.Debug("Auth service: access token refreshed", "user_id", user.ID)

	return access, nil
}

// SignOut revokes the session of the user.
func (a *Auth) SignOut(ctx context.Context, userID uuid.UUID) error {
	if err := a.sessions.Revoke(ctx, userID); err != nil {
		return err
	}

	a.logger.Info("Auth service: user signed out", "user_id", userID)

	return nil
}

// SendEmailVerification issues and mails a verification code.
func (a *Auth) SendEmailVerification(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if err := security.ValidateEmail(email); err != nil {
		return err
	}

	_, err := a.codes.Issue(ctx, email)
	return err
}

// VerifyEmail consumes the verification code and marks the email verified.
func (a *Auth) VerifyEmail(ctx context.Context, email, code string) error {
	email = model.NormalizeEmail(email)

	if err := a.codes.Verify(ctx, email, code); err != nil {
		return err
	}

	err := exec(ctx, a.timeout, func(ctx context.Context) error {
		return a.users.MarkEmailVerified(ctx, email)
	})
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to mark email verified",
			"email", email,
			"error", err.Error())
		return model.NewInternalError("mark email verified", err)
	}

	return nil
}

// ForgotPassword mails a password reset link to a local user.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.localUser(ctx, model.NormalizeEmail(email))
	if err != nil {
		return err
	}

	reset, err := a.tokens.IssuePasswordReset(user.Email)
	if err != nil {
		return model.NewInternalError("issue password reset token", err)
	}

	link, err := a.resetLink(reset.Token)
	if err != nil {
		return model.NewInternalError("build password reset link", err)
	}

	err = exec(ctx, a.timeout, func(ctx context.Context) error {
		return a.mailer.Send(ctx, model.Mail{
			To:      user.Email,
			Subject: "Password reset",
			Body: fmt.Sprintf("Follow the link to set a new password: %s\nThe link expires in %d minutes.",
				link, int(reset.TTL/time.Minute)),
		})
	})
	if err != nil {
		a.logger.Error("Auth service: failed to mail password reset link",
			"user_id", user.ID,
			"error", err.Error())
		return model.NewInternalError("send password reset link", err)
	}

	a.logger.Info("Auth service: password reset requested", "user_id", user.ID)

	return nil
}

// ResetPassword sets a new password for the email in the reset token and
// revokes the user's session.
func (a *Auth) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	email, err := a.tokens.VerifyPasswordReset(params.Token)
	if err != nil {
		a.logger.Info("Auth service: rejected password reset token", "error", err.Error())
		return err
	}

	if err := security.ValidatePassword(params.Password); err != nil {
		return err
	}

	user, err := a.localUser(ctx, email)
	if err != nil {
		return err
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return model.NewInternalError("hash password", err)
	}

	err = exec(ctx, a.timeout, func(ctx context.Context) error {
		return a.users.UpdatePassword(ctx, user.ID, hash)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrUserNotFound
		}
		a.logger.Error("Auth service: failed to update password",
			"user_id", user.ID,
			"error", err.Error())
		return model.NewInternalError("update password", err)
	}

	if err := a.sessions.Revoke(ctx, user.ID); err != nil {
		return err
	}

	a.logger.Info("Auth service: password reset", "user_id", user.ID)

	return nil
}

// Me returns the user with the given ID.
func (a *Auth) Me(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := call(ctx, a.timeout, func(ctx context.Context) (model.User, error) {
		return a.users.GetByID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		a.logger.Error("Auth service: failed to get user by id",
			"user_id", userID,
			"error", err.Error())
		return model.User{}, model.NewInternalError("get user by id", err)
	}

	return user.Public(), nil
}

// ListUsers returns all users.
func (a *Auth) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := call(ctx, a.timeout, func(ctx context.Context) ([]model.User, error) {
		return a.users.List(ctx)
	})
	if err != nil {
		a.logger.Error("Auth service: failed to list users", "error", err.Error())
		return nil, model.NewInternalError("list users", err)
	}

	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}

	return out, nil
}

func (a *Auth) localUser(ctx context.Context, email string) (model.User, error) {
	user, err := call(ctx, a.timeout, func(ctx context.Context) (model.User, error) {
		return a.users.GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.NewInternalError("get user by email", err)
	}

	if !user.Provider.IsLocal() {
		return model.User{}, &model.ProviderConflictError{Existing: user.Provider}
	}

	return user, nil
}

func (a *Auth) resetLink(token string) (string, error) {
	u, err := url.Parse(a.resetURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
