package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var _ model.Pinger = (*Connection)(nil)

// Connection is a client of the session and verification code cache.
type Connection struct {
	*goredis.Client
}

// NewConnection creates a client and checks that the cache is reachable.
func NewConnection(ctx context.Context, cfg config.Redis) (*Connection, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Connection{Client: client}, nil
}

// NewConnectionFromClient wraps an existing client.
func NewConnectionFromClient(client *goredis.Client) *Connection {
	return &Connection{Client: client}
}

func (c *Connection) Ping(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.Client.Ping(ctx).Err()
}

func (c *Connection) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
