package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionCache keeps the hash of the current refresh token per user.
// Get returns ErrNotFound when no session exists.
type SessionCache interface {
	Set(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// CodeCache keeps one-time verification codes per email.
// Get returns ErrNotFound when no code exists.
type CodeCache interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	// DeleteIfEquals removes the code only if it still equals the given value.
	DeleteIfEquals(ctx context.Context, email, code string) (bool, error)
}

// Mail is an outgoing email message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Pinger checks connectivity of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}
