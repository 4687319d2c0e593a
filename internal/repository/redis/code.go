package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const codeKeyPrefix = "verification:"

var deleteIfEqualsScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ model.CodeCache = (*CodeRepository)(nil)

// CodeRepository keeps one-time verification codes keyed by email.
type CodeRepository struct {
	db *Connection
}

func NewCodeRepository(db *Connection) *CodeRepository {
	return &CodeRepository{db: db}
}

// Set stores code for email, replacing any previous one.
func (r *CodeRepository) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.db.Set(ctx, codeKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}
	return nil
}

func (r *CodeRepository) Get(ctx context.Context, email string) (string, error) {
	code, err := r.db.Get(ctx, codeKey(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return code, nil
}

// DeleteIfEquals atomically consumes the code. It reports false when the
// stored code is missing or differs.
func (r *CodeRepository) DeleteIfEquals(ctx context.Context, email, code string) (bool, error) {
	n, err := deleteIfEqualsScript.Run(ctx, r.db, []string{codeKey(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return n == 1, nil
}

func codeKey(email string) string {
	return codeKeyPrefix + model.NormalizeEmail(email)
}
