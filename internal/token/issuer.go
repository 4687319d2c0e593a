package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var _ model.TokenIssuer = (*Issuer)(nil)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID uuid.UUID    `json:"userId"`
	Roles  []model.Role `json:"roles"`
}

// UserClaims is the payload of a refresh token.
type UserClaims struct {
	UserID uuid.UUID `json:"userId"`
}

// ResetClaims is the payload of a password reset token.
type ResetClaims struct {
	Email string `json:"email"`
}

// Issuer mints and verifies the access, refresh and password reset tokens.
type Issuer struct {
	access  *Signer[AccessClaims]
	refresh *Signer[UserClaims]
	reset   *Signer[ResetClaims]
}

// Option configures an Issuer.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewIssuer creates an Issuer from the token configuration.
func NewIssuer(cfg config.Token, opts ...Option) *Issuer {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Issuer{
		access:  NewSigner[AccessClaims](KindAccess, cfg.AccessSecret, cfg.AccessTTL, o.now),
		refresh: NewSigner[UserClaims](KindRefresh, cfg.RefreshSecret, cfg.RefreshTTL, o.now),
		reset:   NewSigner[ResetClaims](KindReset, cfg.ResetSecret, cfg.ResetTTL, o.now),
	}
}

// IssueAccess creates a short-lived access token.
func (i *Issuer) IssueAccess(userID uuid.UUID, roles []model.Role) (model.IssuedToken, error) {
	return i.access.Sign(AccessClaims{UserID: userID, Roles: roles})
}

// IssueRefresh creates a long-lived refresh token. The raw token doubles as the cookie value.
func (i *Issuer) IssueRefresh(userID uuid.UUID) (model.IssuedToken, error) {
	return i.refresh.Sign(UserClaims{UserID: userID})
}

// IssuePasswordReset creates a stateless password reset token for email.
func (i *Issuer) IssuePasswordReset(email string) (model.IssuedToken, error) {
	return i.reset.Sign(ResetClaims{Email: email})
}

// VerifyAccess validates an access token and returns the principal it carries.
func (i *Issuer) VerifyAccess(raw string) (model.Principal, error) {
	c, err := i.access.Verify(raw)
	if err != nil {
		return model.Principal{}, err
	}
	if c.UserID == uuid.Nil {
		return model.Principal{}, fmt.Errorf("access token without subject: %w", model.ErrInvalidToken)
	}
	return model.Principal{UserID: c.UserID, Roles: c.Roles}, nil
}

// VerifyRefresh validates a refresh token and returns the user ID it carries.
func (i *Issuer) VerifyRefresh(raw string) (uuid.UUID, error) {
	c, err := i.refresh.Verify(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if c.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("refresh token without subject: %w", model.ErrInvalidToken)
	}
	return c.UserID, nil
}

// VerifyPasswordReset validates a reset token and returns the target email.
func (i *Issuer) VerifyPasswordReset(raw string) (string, error) {
	c, err := i.reset.Verify(raw)
	if err != nil {
		return "", err
	}
	if c.Email == "" {
		return "", fmt.Errorf("reset token without email: %w", model.ErrInvalidToken)
	}
	return c.Email, nil
}
