package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"FinSight/pkg/logger"
)

// Client wraps a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewClient parses dsn, applies the pool size and pings the server.
func NewClient(ctx context.Context, dsn string, maxConns int32, log *logger.Logger) (*Client, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	log.Info("postgres connected",
		logger.String("host", cfg.ConnConfig.Host),
		logger.String("database", cfg.ConnConfig.Database),
		logger.Int("max_conns", int(cfg.MaxConns)),
	)
	return &Client{pool: pool, log: log}, nil
}

func (c *Client) Pool() *pgxpool.Pool { return c.pool }

func (c *Client) Health(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Client) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema statement %d: %w", i, err)
		}
	}
	c.log.Info("postgres schema ready", logger.Int("statements", len(stmts)))
	return nil
}
