package lock

import (
	"context"
	"errors"
)

var ErrTimeout = errors.New("timed out waiting for lock")

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker serializes callers that share a key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
