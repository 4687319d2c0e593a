package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/shopkeeper-auth/database"
	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var _ model.Pinger = (*Connection)(nil)

var errNoPool = errors.New("connection pool is nil")

// Connection is a pgx pool over the user database.
type Connection struct {
	*pgxpool.Pool
}

// NewConnection applies pending migrations, opens the pool and checks that
// the database answers within cfg.ConnectTimeout.
func NewConnection(ctx context.Context, cfg config.Database) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		conf.MaxConns = cfg.MaxConns
	}

	if err := database.Migrate(ctx, cfg.DSN); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	conn := &Connection{Pool: pool}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return conn, nil
}

func (s *Connection) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (s *Connection) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return errNoPool
	}
	return s.Pool.Ping(ctx)
}
