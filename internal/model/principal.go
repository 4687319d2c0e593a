package model

import (
	"slices"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID uuid.UUID
	Roles  []Role
}

// HasRole reports whether the principal holds the role.
func (p Principal) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// Profile is the identity returned by an external OAuth provider.
type Profile struct {
	Provider      Provider
	Email         string
	EmailVerified bool
	DisplayName   string
	PictureURL    string
}
