package offline

import (
	"context"
	"time"
)

// TokenKey is the reserved cache key for credentials.
const TokenKey = "auth_token"

// TokenData is a cached credential. Expiry belongs to the credential itself
// and is never enforced by the cache; the token entry has no cache expiry.
type TokenData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Expiry       *int64 `json:"expiry,omitempty"`
	CachedAt     int64  `json:"cachedAt"`
}

// ExpiredAt reports whether the credential's own expiry has passed at now.
func (t TokenData) ExpiredAt(now time.Time) bool {
	return t.Expiry != nil && now.UnixMilli() > *t.Expiry
}

// CacheTokenData stores t under TokenKey with CachedAt set to now and no
// cache expiry.
func (s *Service) CacheTokenData(ctx context.Context, t TokenData) error {
	if t.Token == "" {
		return ErrEmptyToken
	}
	t.CachedAt = s.nowMillis()
	return s.SetItem(ctx, TokenKey, t, NoExpiry())
}

// GetCachedTokenData returns the cached credential, or nil.
func (s *Service) GetCachedTokenData(ctx context.Context) (*TokenData, error) {
	t, ok, err := Get[TokenData](ctx, s, TokenKey)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

func (s *Service) RemoveTokenData(ctx context.Context) error {
	return s.RemoveItem(ctx, TokenKey)
}
