package cache

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autosg/internal/core/ports"

	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

var _ ports.ResolutionCache = (*SQLiteStore)(nil)

// SQLiteStore persists responses in a single sqlite file that several
// processes may share.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path.
// busyTimeout <= 0 selects the default.
func OpenSQLite(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	// WAL lets readers proceed while another process holds the write lock.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &SQLiteStore{path: cleanPath, db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, key ports.CacheKey) ([]byte, bool, error) {
	var response string
	err := s.withRetry(ctx, "get cache entry", func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT response FROM cache WHERE source_hash = ? AND model = ? AND prompt_version = ?`,
			key.SourceHash, key.Model, key.ProtocolVersion,
		).Scan(&response)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(response), true, nil
}

// Put replaces any existing entry in one statement; there is no
// read-modify-write window.
func (s *SQLiteStore) Put(ctx context.Context, key ports.CacheKey, response []byte) error {
	query := `
INSERT INTO cache (source_hash, model, prompt_version, response)
VALUES (?, ?, ?, ?)
ON CONFLICT(source_hash, model, prompt_version) DO UPDATE SET
  response=excluded.response,
  created_at_utc=CURRENT_TIMESTAMP
`
	return s.withRetry(ctx, "put cache entry", func() error {
		_, err := s.db.ExecContext(ctx, query, key.SourceHash, key.Model, key.ProtocolVersion, string(response))
		return err
	})
}

// Count returns the number of stored entries across all versions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.withRetry(ctx, "count cache entries", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&n)
	})
	return n, err
}

func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil || stderrors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || stderrors.Is(err, os.ErrInvalid)
}
