package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

const (
	DefaultTTL       = 24 * time.Hour
	DefaultRetention = 7 * 24 * time.Hour

	defaultMemoryEntries = 4096
)

// Options configures a cache instance. Zero values fall back to the
// defaults above.
type Options struct {
	Path          string
	TTL           time.Duration
	Retention     time.Duration
	MemoryEntries int
}

// Stats is the externally visible cache state.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int64  `json:"entries"`
}

type entry struct {
	findings  []model.Finding
	createdAt time.Time
	expiresAt time.Time
}

// Cache maps (content hash, rule-set signature) to previously computed
// findings. An LRU tier answers repeat lookups within a process; a
// sqlite tier persists entries across runs. Both tiers are safe for
// concurrent use; concurrent misses for one key may both compute, with
// the last store winning.
type Cache struct {
	store     *store
	mem       *lru.Cache[string, entry]
	ttl       time.Duration
	retention time.Duration
	hits      atomic.Uint64
	misses    atomic.Uint64
}

// New opens or creates the cache at opts.Path and runs an opportunistic
// retention sweep.
func New(opts Options) (*Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = defaultMemoryEntries
	}

	st, err := openStore(opts.Path)
	if err != nil {
		return nil, err
	}
	mem, err := lru.New[string, entry](opts.MemoryEntries)
	if err != nil {
		st.Close()
		return nil, err
	}

	c := &Cache{store: st, mem: mem, ttl: opts.TTL, retention: opts.Retention}
	c.PurgeExpired(c.retention)
	return c, nil
}

// Key derives the cache key from a unit's content hash and the active
// rule-set signature. Both must participate: identical content scanned
// under a different rule set is a different entry.
func Key(contentHash, signature string) string {
	sum := sha256.Sum256([]byte(contentHash + ":" + signature))
	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns cached findings for the unit when a fresh entry
// exists, otherwise runs compute and stores its result. The bool result
// reports whether the call was served from cache. A compute error is
// returned without storing anything, so the failure resurfaces on the
// next scan.
func (c *Cache) GetOrCompute(ctx context.Context, unit *model.SourceUnit, signature string, compute func() ([]model.Finding, error)) ([]model.Finding, bool, error) {
	key := Key(unit.ContentHash, signature)
	now := time.Now()

	if e, ok := c.mem.Get(key); ok && now.Before(e.expiresAt) {
		c.hits.Add(1)
		return rebase(e.findings, unit.Path), true, nil
	}

	if e, ok := c.store.get(ctx, key); ok && now.Before(e.expiresAt) {
		c.hits.Add(1)
		c.mem.Add(key, e)
		return rebase(e.findings, unit.Path), true, nil
	}

	c.misses.Add(1)
	findings, err := compute()
	if err != nil {
		return nil, false, err
	}

	e := entry{findings: findings, createdAt: now, expiresAt: now.Add(c.ttl)}
	if err := c.store.put(ctx, key, e); err != nil {
		// A failed persist degrades the cache, not the scan.
		return findings, false, nil
	}
	c.mem.Add(key, e)
	return findings, false, nil
}

// rebase rewrites the file path on a copy of cached findings. Entries
// are shared by content hash, so a hit may have been computed for a
// different path with identical bytes.
func rebase(findings []model.Finding, path string) []model.Finding {
	if len(findings) == 0 {
		return findings
	}
	out := make([]model.Finding, len(findings))
	copy(out, findings)
	for i := range out {
		out[i].FilePath = path
	}
	return out
}

// PurgeExpired removes entries created before the retention window.
// Called opportunistically on open and after each batch; there is no
// background timer.
func (c *Cache) PurgeExpired(retention time.Duration) int64 {
	if retention <= 0 {
		retention = c.retention
	}
	cutoff := time.Now().Add(-retention)
	n, _ := c.store.purgeBefore(cutoff)
	if n > 0 {
		c.mem.Purge()
	}
	return n
}

// Stats returns hit and miss counters plus the persisted entry count.
func (c *Cache) Stats() Stats {
	entries, _ := c.store.count()
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}

// Clear drops every entry in both tiers and resets the counters.
func (c *Cache) Clear() error {
	c.mem.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	return c.store.clear()
}

func (c *Cache) Close() error {
	return c.store.Close()
}
