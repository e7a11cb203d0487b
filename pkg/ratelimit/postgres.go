package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS rate_limit_buckets (
	bucket_key   TEXT PRIMARY KEY,
	hits         INTEGER NOT NULL,
	window_start BIGINT NOT NULL
)`

const postgresHit = `INSERT INTO rate_limit_buckets (bucket_key, hits, window_start)
VALUES ($1, 1, $2)
ON CONFLICT (bucket_key) DO UPDATE SET
	hits = CASE WHEN EXCLUDED.window_start - rate_limit_buckets.window_start > $3::BIGINT
		THEN 1 ELSE rate_limit_buckets.hits + 1 END,
	window_start = CASE WHEN EXCLUDED.window_start - rate_limit_buckets.window_start > $3::BIGINT
		THEN EXCLUDED.window_start ELSE rate_limit_buckets.window_start END
RETURNING hits, window_start`

// PostgresStore shares buckets between instances behind a load balancer.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates the bucket table if needed. The pool is owned by
// the caller.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create rate limit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Result, error) {
	var hits int
	var start int64
	err := s.pool.QueryRow(ctx, postgresHit, key, now.UnixMilli(), window.Milliseconds()).Scan(&hits, &start)
	if err != nil {
		return Result{}, fmt.Errorf("postgres rate limit hit: %w", err)
	}
	return Result{Count: hits, ResetAt: time.UnixMilli(start).Add(window)}, nil
}

func (s *PostgresStore) Close() error { return nil }
