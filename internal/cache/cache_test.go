package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/loader"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

const testSignature = "3f2a9c0d"

func newTestCache(t *testing.T, opts Options) *Cache {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "cache.db")
	}
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func probeFindings(path string) []model.Finding {
	return []model.Finding{{
		RuleID:     "sql.concat-query",
		Category:   model.CategorySQL,
		Severity:   model.SeverityHigh,
		FilePath:   path,
		Line:       4,
		Column:     2,
		Snippet:    `db.Query("SELECT * FROM t WHERE id=" + userID)`,
		Message:    "possible SQL injection",
		Confidence: 0.9,
	}}
}

func TestKeyDerivation(t *testing.T) {
	sum := sha256.Sum256([]byte("hash-a:" + testSignature))
	assert.Equal(t, hex.EncodeToString(sum[:]), Key("hash-a", testSignature))

	assert.NotEqual(t, Key("hash-a", "sig-1"), Key("hash-a", "sig-2"))
	assert.NotEqual(t, Key("hash-a", "sig-1"), Key("hash-b", "sig-1"))
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("a.go", []byte("package main\n"))
	want := probeFindings("a.go")

	calls := 0
	compute := func() ([]model.Finding, error) {
		calls++
		return want, nil
	}

	got, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, want, got)

	got, cached, err = c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Entries)
}

func TestContentAddressedAcrossPaths(t *testing.T) {
	c := newTestCache(t, Options{})
	content := []byte("package main\n\nvar x = 1\n")
	original := loader.FromBytes("internal/db/conn.go", content)
	renamed := loader.FromBytes("internal/db/conn_old.go", content)
	require.Equal(t, original.ContentHash, renamed.ContentHash)

	calls := 0
	_, cached, err := c.GetOrCompute(context.Background(), original, testSignature, func() ([]model.Finding, error) {
		calls++
		return probeFindings(original.Path), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)

	got, cached, err := c.GetOrCompute(context.Background(), renamed, testSignature, func() ([]model.Finding, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, calls)

	// One shared entry, but findings report the path they were asked for.
	require.Len(t, got, 1)
	assert.Equal(t, renamed.Path, got[0].FilePath)
	assert.Equal(t, int64(1), c.Stats().Entries)
}

func TestSignatureChangeMisses(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("a.go", []byte("package main\n"))

	calls := 0
	compute := func() ([]model.Finding, error) {
		calls++
		return probeFindings("a.go"), nil
	}

	_, cached, err := c.GetOrCompute(context.Background(), unit, "sig-1", compute)
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = c.GetOrCompute(context.Background(), unit, "sig-2", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), c.Stats().Entries)
}

func TestComputeErrorNotCached(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("broken.go", []byte("package main\nfunc {\n"))
	boom := errors.New("parse failed")

	_, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, cached)
	assert.Equal(t, int64(0), c.Stats().Entries)

	// The failure resurfaces as a fresh compute, never as a hit.
	calls := 0
	_, cached, err = c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, calls)
}

func TestExpiredEntryRecomputed(t *testing.T) {
	c := newTestCache(t, Options{TTL: time.Nanosecond})
	unit := loader.FromBytes("a.go", []byte("package main\n"))

	calls := 0
	compute := func() ([]model.Finding, error) {
		calls++
		return probeFindings("a.go"), nil
	}

	_, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	unit := loader.FromBytes("a.go", []byte("package main\n"))
	want := probeFindings("a.go")

	c1, err := New(Options{Path: path})
	require.NoError(t, err)
	_, cached, err := c1.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	require.NoError(t, c1.Close())

	c2 := newTestCache(t, Options{Path: path})
	calls := 0
	got, cached, err := c2.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 0, calls)
	assert.Equal(t, want, got)
}

func TestCorruptEntryDiscarded(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("a.go", []byte("package main\n"))
	want := probeFindings("a.go")

	_, _, err := c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		return want, nil
	})
	require.NoError(t, err)

	// Mangle the persisted row and drop the memory tier so the next
	// lookup has to decode it.
	key := Key(unit.ContentHash, testSignature)
	_, err = c.store.db.Exec("UPDATE cache_entries SET findings = 'not json' WHERE key = ?", key)
	require.NoError(t, err)
	c.mem.Purge()

	calls := 0
	got, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		calls++
		return want, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, calls)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(1), c.Stats().Entries)
}

func TestPurgeExpiredRetention(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("a.go", []byte("package main\n"))

	calls := 0
	compute := func() ([]model.Finding, error) {
		calls++
		return probeFindings("a.go"), nil
	}
	_, _, err := c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)

	// Fresh entries survive a sweep.
	assert.Equal(t, int64(0), c.PurgeExpired(time.Hour))
	assert.Equal(t, int64(1), c.Stats().Entries)

	// Age the row past the default retention window.
	aged := time.Now().Add(-8 * 24 * time.Hour).Unix()
	_, err = c.store.db.Exec("UPDATE cache_entries SET created_at = ?", aged)
	require.NoError(t, err)

	assert.Equal(t, int64(1), c.PurgeExpired(0))
	assert.Equal(t, int64(0), c.Stats().Entries)

	// The memory tier was dropped with it.
	_, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestClearResetsEverything(t *testing.T) {
	c := newTestCache(t, Options{})
	unit := loader.FromBytes("a.go", []byte("package main\n"))

	_, _, err := c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		return probeFindings("a.go"), nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Clear())

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, int64(0), stats.Entries)

	_, cached, err := c.GetOrCompute(context.Background(), unit, testSignature, func() ([]model.Finding, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
}
