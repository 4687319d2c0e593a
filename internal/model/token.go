package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenIssuer signs and verifies access, refresh and password reset tokens.
type TokenIssuer interface {
	IssueAccess(userID uuid.UUID, roles []Role) (IssuedToken, error)
	IssueRefresh(userID uuid.UUID) (IssuedToken, error)
	IssuePasswordReset(email string) (IssuedToken, error)
	VerifyAccess(raw string) (Principal, error)
	VerifyRefresh(raw string) (uuid.UUID, error)
	VerifyPasswordReset(raw string) (string, error)
}

// IssuedToken is a signed token with its lifetime.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// MaxAge returns the token lifetime in whole seconds for cookie Max-Age.
func (t IssuedToken) MaxAge() int {
	return int(t.TTL / time.Second)
}

// TokenPair is the result of a successful sign in.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
