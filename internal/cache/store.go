package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key        TEXT PRIMARY KEY,
    findings   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_created ON cache_entries(created_at);
`

// store is the sqlite persistence tier. A single connection serializes
// writers; readers go through the same handle.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &store{db: db}, nil
}

// get loads one entry. A row that fails to decode is treated as a miss
// and deleted so the next store overwrites it cleanly.
func (s *store) get(ctx context.Context, key string) (entry, bool) {
	var raw string
	var created, expires int64
	err := s.db.QueryRowContext(ctx,
		"SELECT findings, created_at, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&raw, &created, &expires)
	if err != nil {
		return entry{}, false
	}

	var findings []model.Finding
	if err := json.Unmarshal([]byte(raw), &findings); err != nil {
		slog.Warn("corrupt cache entry, discarding", "key", key, "error", err)
		s.db.Exec("DELETE FROM cache_entries WHERE key = ?", key)
		return entry{}, false
	}
	return entry{
		findings:  findings,
		createdAt: time.Unix(created, 0),
		expiresAt: time.Unix(expires, 0),
	}, true
}

func (s *store) put(ctx context.Context, key string, e entry) error {
	raw, err := json.Marshal(e.findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache_entries (key, findings, created_at, expires_at) VALUES (?, ?, ?, ?)",
		key, string(raw), e.createdAt.Unix(), e.expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

func (s *store) purgeBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM cache_entries WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *store) count() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM cache_entries").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

func (s *store) clear() error {
	if _, err := s.db.Exec("DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}
