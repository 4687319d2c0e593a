package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// Sessions keeps at most one live refresh token per user.
// A new sign in overwrites the previous session.
type Sessions struct {
	cache   model.SessionCache
	hasher  PasswordHasher
	ttl     time.Duration
	timeout time.Duration
	logger  *logger.Logger
}

func NewSessions(cache model.SessionCache, hasher PasswordHasher, ttl, timeout time.Duration, logger *logger.Logger) *Sessions {
	return &Sessions{
		cache:   cache,
		hasher:  hasher,
		ttl:     ttl,
		timeout: orDefault(timeout),
		logger:  logger,
	}
}

// Store saves a salted hash of the refresh token as the session of the user.
func (s *Sessions) Store(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	hash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return model.NewInternalError("hash refresh token", err)
	}

	err = exec(ctx, s.timeout, func(ctx context.Context) error {
		return s.cache.Set(ctx, userID, hash, s.ttl)
	})
	if err != nil {
		s.logger.Error("Sessions: failed to store session",
			"user_id", userID,
			"error", err.Error())
		return model.NewInternalError("store session", err)
	}

	s.logger.Debug("Sessions: session stored", "user_id", userID)

	return nil
}

// Validate reports whether refreshToken is the current session of the user.
func (s *Sessions) Validate(ctx context.Context, userID uuid.UUID, refreshToken string) (bool, error) {
	hash, err := call(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.cache.Get(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("Sessions: failed to load session",
			"user_id", userID,
			"error", err.Error())
		return false, model.NewInternalError("load session", err)
	}

	ok, err := s.hasher.Verify(refreshToken, hash)
	if err != nil {
		s.logger.Warn("Sessions: stored session hash is unreadable",
			"user_id", userID,
			"error", err.Error())
		return false, nil
	}

	return ok, nil
}

// Revoke removes the session of the user.
func (s *Sessions) Revoke(ctx context.Context, userID uuid.UUID) error {
	err := exec(ctx, s.timeout, func(ctx context.Context) error {
		return s.cache.Delete(ctx, userID)
	})
	if err != nil {
		s.logger.Error("Sessions: failed to revoke session",
			"user_id", userID,
			"error", err.Error())
		return model.NewInternalError("revoke session", fmt.Errorf("user %s: %w", userID, err))
	}

	s.logger.Debug("Sessions: session revoked", "user_id", userID)

	return nil
}
