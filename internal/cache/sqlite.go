package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_category ON cache(category);
CREATE INDEX IF NOT EXISTS cache_expires ON cache(expires_at);
`

// openDB opens the SQLite file, creates the schema and drops expired rows.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at <= ?`, time.Now().UnixMilli()); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("prune cache: %w", err)
	}
	return db, nil
}

func (c *Cache) dbGet(ctx context.Context, key string, now time.Time) (entry, bool) {
	var (
		cat   string
		value []byte
		exp   int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT category, value, expires_at FROM cache WHERE key = ?`, key,
	).Scan(&cat, &value, &exp)
	if err != nil {
		// missing rows and read errors are both misses
		return entry{}, false
	}

	expAt := time.UnixMilli(exp)
	if !now.Before(expAt) {
		c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key) // nolint:errcheck
		return entry{}, false
	}
	return entry{data: value, category: Category(cat), expAt: expAt}, true
}

func (c *Cache) dbSet(ctx context.Context, key string, e entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache (key, category, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET category = excluded.category, value = excluded.value, expires_at = excluded.expires_at`,
		key, string(e.category), e.data, e.expAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
