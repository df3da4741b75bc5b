package offline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCacheNeverTimeExpires(t *testing.T) {
	h := newHarness(t, Config{DefaultExpiry: time.Minute})
	ctx := context.Background()

	require.NoError(t, h.svc.CacheTokenData(ctx, TokenData{Token: "abc"}))
	h.clock.Add(5 * 365 * 24 * time.Hour)

	tok, err := h.svc.GetCachedTokenData(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "abc", tok.Token)
	assert.Equal(t, epoch.UnixMilli(), tok.CachedAt)

	meta, err := h.svc.GetMetadata(ctx, TokenKey)
	require.NoError(t, err)
	assert.Nil(t, meta.Expiry)
}

func TestTokenCarriesOwnExpiry(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	credExpiry := epoch.Add(time.Hour).UnixMilli()
	require.NoError(t, h.svc.CacheTokenData(ctx, TokenData{
		Token:        "access",
		RefreshToken: "refresh",
		Expiry:       &credExpiry,
		CachedAt:     42,
	}))

	h.clock.Add(2 * time.Hour)
	tok, err := h.svc.GetCachedTokenData(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.Equal(t, epoch.UnixMilli(), tok.CachedAt, "CachedAt is set by the service")
	assert.True(t, tok.ExpiredAt(h.clock.Now()))
	assert.False(t, tok.ExpiredAt(epoch))
}

func TestTokenRemoval(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	tok, err := h.svc.GetCachedTokenData(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, h.svc.CacheTokenData(ctx, TokenData{Token: "abc"}))
	require.NoError(t, h.svc.RemoveTokenData(ctx))
	tok, err = h.svc.GetCachedTokenData(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenOverwrite(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	require.NoError(t, h.svc.CacheTokenData(ctx, TokenData{Token: "old"}))
	h.clock.Add(time.Minute)
	require.NoError(t, h.svc.CacheTokenData(ctx, TokenData{Token: "new"}))

	tok, err := h.svc.GetCachedTokenData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", tok.Token)
	assert.Equal(t, epoch.Add(time.Minute).UnixMilli(), tok.CachedAt)
}

func TestTokenRequired(t *testing.T) {
	h := newHarness(t, Config{})
	require.ErrorIs(t, h.svc.CacheTokenData(context.Background(), TokenData{}), ErrEmptyToken)
}
