package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Category groups cached responses so they can share a TTL and be
// invalidated together.
type Category string

const (
	CategoryDefault    Category = "default"
	CategoryFields     Category = "fields"
	CategoryPriorities Category = "priorities"
	CategoryIssueTypes Category = "issuetypes"
	CategoryStatuses   Category = "statuses"
	CategoryLinkTypes  Category = "linktypes"
	CategoryProjects   Category = "projects"
	CategoryUsers      Category = "users"
)

// DefaultTTLs are applied when Set is called with a zero TTL.
var DefaultTTLs = map[Category]time.Duration{
	CategoryDefault:    5 * time.Minute,
	CategoryFields:     24 * time.Hour,
	CategoryPriorities: 24 * time.Hour,
	CategoryIssueTypes: 24 * time.Hour,
	CategoryStatuses:   24 * time.Hour,
	CategoryLinkTypes:  24 * time.Hour,
	CategoryProjects:   time.Hour,
	CategoryUsers:      time.Hour,
}

// Options configures a Cache.
type Options struct {
	Size   int           // in-memory entries, default 512
	MaxTTL time.Duration // upper bound for any entry, default 24h
	Dir    string        // directory of the SQLite file; empty keeps the cache in memory only
}

// Stats reports cache usage.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Entries    int
	Persistent bool
}

// entry is a cached value with its own expiry.
type entry struct {
	data     []byte
	category Category
	expAt    time.Time
}

// Cache is a two tier TTL cache of raw response bodies: an expirable LRU in
// front of an optional SQLite table. It is safe for concurrent use.
type Cache struct {
	mem    *expirable.LRU[string, entry]
	db     *sql.DB
	maxTTL time.Duration
	now    func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
	mu     sync.Mutex // serializes category invalidation against Set
}

// New creates a cache. When opts.Dir is set the SQLite file cache.db is
// created there.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Size <= 0 {
		opts.Size = 512
	}
	if opts.MaxTTL <= 0 {
		opts.MaxTTL = 24 * time.Hour
	}
	c := &Cache{
		mem:    expirable.NewLRU[string, entry](opts.Size, nil, opts.MaxTTL),
		maxTTL: opts.MaxTTL,
		now:    time.Now,
	}
	if opts.Dir == "" {
		return c, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := openDB(ctx, filepath.Join(opts.Dir, "cache.db"))
	if err != nil {
		return nil, err
	}
	c.db = db
	return c, nil
}

// TTLFor returns the default TTL of a category.
func TTLFor(cat Category) time.Duration {
	if ttl, ok := DefaultTTLs[cat]; ok {
		return ttl
	}
	return DefaultTTLs[CategoryDefault]
}

// Get returns a copy of the cached value for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	now := c.now()
	if e, ok := c.mem.Get(key); ok {
		if now.Before(e.expAt) {
			c.hits.Add(1)
			return clone(e.data), true
		}
		c.mem.Remove(key)
	}

	if c.db != nil {
		if e, ok := c.dbGet(ctx, key, now); ok {
			c.mem.Add(key, e)
			c.hits.Add(1)
			return clone(e.data), true
		}
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores value under key. A zero ttl uses the category default; a
// negative ttl stores nothing.
func (c *Cache) Set(ctx context.Context, key string, cat Category, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return nil
	}
	if ttl == 0 {
		ttl = TTLFor(cat)
	}
	ttl = min(ttl, c.maxTTL)

	e := entry{data: clone(value), category: cat, expAt: c.now().Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.Add(key, e)
	if c.db != nil {
		return c.dbSet(ctx, key, e)
	}
	return nil
}

// Invalidate removes one key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mem.Remove(key)
	if c.db == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	return err
}

// InvalidateCategory removes every entry of a category.
func (c *Cache) InvalidateCategory(ctx context.Context, cat Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.mem.Keys() {
		if e, ok := c.mem.Peek(k); ok && e.category == cat {
			c.mem.Remove(k)
		}
	}
	if c.db == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE category = ?`, string(cat))
	return err
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear(ctx context.Context) error {
	c.mem.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	if c.db == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache`)
	return err
}

// Stats returns hit and miss counters and the number of live entries.
func (c *Cache) Stats(ctx context.Context) Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.mem.Len(), Persistent: c.db != nil}
	if c.db != nil {
		var n int
		if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache WHERE expires_at > ?`, c.now().UnixMilli()).Scan(&n); err == nil {
			s.Entries = max(s.Entries, n)
		}
	}
	return s
}

// Close releases the SQLite handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
