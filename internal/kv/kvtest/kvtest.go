// Package kvtest holds a behaviour suite every kv.Store backend must pass.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv"
)

// Run exercises store through the full kv.Store contract. The store must
// start empty.
func Run(t *testing.T, store kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "absent")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", `{"x":1}`))
		v, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, `{"x":1}`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", "first"))
		require.NoError(t, store.Set(ctx, "a", "second"))
		v, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", "v"))
		require.NoError(t, store.Remove(ctx, "gone"))
		require.NoError(t, store.Remove(ctx, "gone"))
		_, err := store.Get(ctx, "gone")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("list and remove many", func(t *testing.T) {
		for _, k := range []string{"ns:1", "ns:2", "other"} {
			require.NoError(t, store.Set(ctx, k, "v"))
		}
		keys, err := store.ListKeys(ctx)
		require.NoError(t, err)
		assert.Subset(t, keys, []string{"ns:1", "ns:2", "other"})

		require.NoError(t, store.RemoveMany(ctx, []string{"ns:1", "ns:2", "never-written"}))
		require.NoError(t, store.RemoveMany(ctx, nil))

		keys, err = store.ListKeys(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, "ns:1")
		assert.NotContains(t, keys, "ns:2")
		assert.Contains(t, keys, "other")
	})

	t.Run("unicode values", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "profile", `{"name":"Amina","city":"N'Djaména"}`))
		v, err := store.Get(ctx, "profile")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Amina","city":"N'Djaména"}`, v)
	})
}
