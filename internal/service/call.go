package service

import (
	"context"
	"time"
)

// DefaultCallTimeout bounds a single call to the store, cache or mailer.
const DefaultCallTimeout = 3 * time.Second

// PasswordHasher produces and checks salted hashes.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

// call runs fn under a per-call deadline derived from ctx.
func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// exec is call for operations without a result.
func exec(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultCallTimeout
	}
	return timeout
}
