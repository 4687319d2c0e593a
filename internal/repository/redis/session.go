package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const sessionKeyPrefix = "session:"

var _ model.SessionCache = (*SessionRepository)(nil)

// SessionRepository keeps one refresh token hash per user.
type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

// Set overwrites the session of the user.
func (r *SessionRepository) Set(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error {
	if err := r.db.Set(ctx, sessionKey(userID), hash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	hash, err := r.db.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return hash, nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(userID uuid.UUID) string {
	return sessionKeyPrefix + userID.String()
}
