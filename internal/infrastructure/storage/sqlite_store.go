package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

const (
	cacheTable = "kv_cache"

	createCacheTableSQL = `
CREATE TABLE IF NOT EXISTS kv_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);`
)

// SQLiteStore persists cache entries in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ ports.KVStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", createCacheTableSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: init schema: %w", err)
		}
	}

	return NewSQLiteStore(db, ttl), nil
}

// NewSQLiteStore wraps an already initialised sql.DB.
func NewSQLiteStore(db *sql.DB, ttl time.Duration) *SQLiteStore {
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}
}

// Get returns the payload stored under key; expired rows are removed.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("payload", "expires_at").
		From(cacheTable).
		Where(sq.Eq{"cache_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("storage: build select: %w", err)
	}

	var (
		payload   []byte
		expiresAt int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}

	if expiresAt > 0 && s.now().Unix() >= expiresAt {
		if dErr := s.Delete(ctx, key); dErr != nil {
			return nil, dErr
		}
		return nil, domain.ErrCacheMiss
	}
	return payload, nil
}

// Set upserts the payload under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).Unix()
	}

	query, args, err := sq.Insert(cacheTable).
		Columns("cache_key", "payload", "expires_at", "updated_at").
		Values(key, value, expiresAt, now.Unix()).
		Suffix(`ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("storage: build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete(cacheTable).Where(sq.Eq{"cache_key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("storage: build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	query, args, err := sq.Delete(cacheTable).
		Where(sq.Expr("substr(cache_key, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("storage: build delete prefix: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("storage: delete prefix %s: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: rows affected: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
