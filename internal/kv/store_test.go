package kv_test

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/stretchr/testify/require"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv/kvtest"
)

func TestMemory(t *testing.T) {
	kvtest.Run(t, kv.NewMemory())
}

func TestMemoryHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := kv.NewMemory()
	require.ErrorIs(t, m.Set(ctx, "k", "v"), context.Canceled)
	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := kv.NewRedis(kv.NewRedisClient(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = store.Close() })
	kvtest.Run(t, store)
}

func TestRedisRemoveManyBatches(t *testing.T) {
	mr := miniredis.RunT(t)
	store := kv.NewRedis(kv.NewRedisClient(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	keys := make([]string, 1200)
	for i := range keys {
		keys[i] = "bulk:" + strconv.Itoa(i)
		require.NoError(t, store.Set(ctx, keys[i], "v"))
	}
	require.NoError(t, store.RemoveMany(ctx, keys))
	left, err := store.ListKeys(ctx)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestPebble(t *testing.T) {
	store, err := kv.OpenPebble("offcache", vfs.NewMem())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	kvtest.Run(t, store)
}

func TestPebbleCanceledContext(t *testing.T) {
	store, err := kv.OpenPebble("offcache", vfs.NewMem())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Set(ctx, "k", "v"), context.Canceled)
}

func TestSQLite(t *testing.T) {
	store, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	kvtest.Run(t, store)
}

func TestSQLiteRequiresPath(t *testing.T) {
	_, err := kv.OpenSQLite("  ")
	require.Error(t, err)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "offline_cache:profile", `{"data":1}`))
	require.NoError(t, store.Close())

	store, err = kv.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	v, err := store.Get(ctx, "offline_cache:profile")
	require.NoError(t, err)
	require.Equal(t, `{"data":1}`, v)
}
