package model

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, email string) error
	UpdateProfileImage(ctx context.Context, id uuid.UUID, url string) error
	List(ctx context.Context) ([]User, error)
}

// Provider tags the identity provider a user signs in with.
// It is either "local" or "oauth:<name>".
type Provider string

// ProviderLocal marks users authenticated by email and password.
const ProviderLocal Provider = "local"

const oauthPrefix = "oauth:"

// OAuthProvider builds the provider tag for an external OAuth provider.
func OAuthProvider(name string) Provider {
	return Provider(oauthPrefix + name)
}

// IsLocal reports whether the provider is the local password provider.
func (p Provider) IsLocal() bool {
	return p == ProviderLocal
}

// Name returns the provider name without the oauth prefix.
func (p Provider) Name() string {
	return strings.TrimPrefix(string(p), oauthPrefix)
}

// Role is a coarse-grained authorization tag.
type Role string

const (
	// RoleUser is granted to every user.
	RoleUser Role = "user"
	// RoleAdmin grants access to administrative endpoints.
	RoleAdmin Role = "admin"
)

// DefaultRoles returns the roles assigned to newly created users.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// User represents a stored user.
// PasswordHash is set only for the local provider and is never serialized.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Provider      Provider  `json:"provider"`
	Roles         []Role    `json:"roles"`
	ProfileImage  string    `json:"profileImage,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	u.Roles = slices.Clone(u.Roles)
	return u
}

// HasRole reports whether the user holds the role.
func (u User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// Principal returns the request-scoped reference to the user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Roles: slices.Clone(u.Roles)}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
