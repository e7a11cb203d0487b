package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS rate_limit_buckets (
	bucket_key   TEXT PRIMARY KEY,
	hits         INTEGER NOT NULL,
	window_start INTEGER NOT NULL
)`

// The SET expressions see the row as it was before the update, so both CASEs
// agree on whether the window expired.
const sqliteHit = `INSERT INTO rate_limit_buckets (bucket_key, hits, window_start)
VALUES (?1, 1, ?2)
ON CONFLICT (bucket_key) DO UPDATE SET
	hits = CASE WHEN excluded.window_start - rate_limit_buckets.window_start > ?3
		THEN 1 ELSE rate_limit_buckets.hits + 1 END,
	window_start = CASE WHEN excluded.window_start - rate_limit_buckets.window_start > ?3
		THEN excluded.window_start ELSE rate_limit_buckets.window_start END
RETURNING hits, window_start`

// SQLiteStore persists buckets in a local database file so limits survive
// restarts of a single instance.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	trimmed := strings.TrimSpace(path)
	inMemory := trimmed == "" || trimmed == ":memory:" || strings.Contains(trimmed, "mode=memory")
	if trimmed == "" {
		trimmed = ":memory:"
	}

	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if !inMemory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create rate limit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Result, error) {
	var hits int
	var start int64
	err := s.db.QueryRowContext(ctx, sqliteHit, key, now.UnixMilli(), window.Milliseconds()).Scan(&hits, &start)
	if err != nil {
		return Result{}, fmt.Errorf("sqlite rate limit hit: %w", err)
	}
	return Result{Count: hits, ResetAt: time.UnixMilli(start).Add(window)}, nil
}

// Purge deletes buckets whose window ended before now.
func (s *SQLiteStore) Purge(ctx context.Context, window time.Duration, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_buckets WHERE ?1 - window_start > ?2`, now.UnixMilli(), window.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("purge rate limit buckets: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
