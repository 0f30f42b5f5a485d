package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/core"
)

func newEntry(fp string, created time.Time, ttl time.Duration) *core.CacheEntry {
	return &core.CacheEntry{
		Fingerprint: fp,
		Kind:        core.KindEmail,
		Prediction:  core.VerdictPhishing,
		Label:       "Phishing Email",
		Probability: 0.92,
		CreatedAt:   created,
		ExpiresAt:   created.Add(ttl),
	}
}

// exerciseCache runs the behaviour every VerdictCache backend must share
func exerciseCache(t *testing.T, c core.VerdictCache) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, newEntry("fp-1", now, time.Hour)))
	got, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, core.KindEmail, got.Kind)
	assert.Equal(t, core.VerdictPhishing, got.Prediction)
	assert.Equal(t, "Phishing Email", got.Label)
	assert.InDelta(t, 0.92, got.Probability, 1e-9)
	assert.Equal(t, now.Unix(), got.CreatedAt.Unix())

	// overwrite keeps a single row per fingerprint
	updated := newEntry("fp-1", now, time.Hour)
	updated.Prediction = core.VerdictSafe
	updated.Label = "Safe Email"
	require.NoError(t, c.Set(ctx, updated))
	got, err = c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictSafe, got.Prediction)

	require.NoError(t, c.Set(ctx, newEntry("fp-old", now.Add(-2*time.Hour), time.Hour)))
	_, err = c.Get(ctx, "fp-old")
	assert.Error(t, err)

	require.NoError(t, c.Cleanup(ctx))
	_, err = c.Get(ctx, "fp-1")
	assert.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "fp-1"))
	_, err = c.Get(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	exerciseCache(t, c)
}

func TestMemoryCache_ExpiredAndCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, newEntry("a", now.Add(-time.Hour), 30*time.Minute)))
	require.NoError(t, c.Set(ctx, newEntry("b", now, time.Hour)))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Cleanup(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_BackgroundCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond)
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), newEntry("a", time.Now().Add(-time.Hour), time.Minute)))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryCache_StopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Minute)
	c.Stop()
	c.Stop()
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	c, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()
	exerciseCache(t, c)
}

func TestSQLiteCache_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	ctx := context.Background()

	c, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, newEntry("fp", time.Now(), time.Hour)))
	c.Stop()

	reopened, err := NewSQLiteCache(path, zap.NewNop(), 0)
	require.NoError(t, err)
	defer reopened.Stop()

	got, err := reopened.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, "Phishing Email", got.Label)
}

func TestSQLiteCache_Cleanup(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "verdicts.db"), zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, c.Set(ctx, newEntry("old", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, c.Set(ctx, newEntry("new", now, time.Hour)))
	require.NoError(t, c.Cleanup(ctx))

	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM verdict_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMySQLCache(t *testing.T) {
	dsn := os.Getenv("PHISHGUARD_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("PHISHGUARD_TEST_MYSQL_DSN not set")
	}

	c, err := NewMySQLCache(dsn, zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()

	_, err = c.db.Exec(`DELETE FROM verdict_cache`)
	require.NoError(t, err)
	exerciseCache(t, c)
}

func TestNewMySQLCache_InvalidDSN(t *testing.T) {
	_, err := NewMySQLCache("not a dsn", zap.NewNop(), 0)
	assert.Error(t, err)
}
