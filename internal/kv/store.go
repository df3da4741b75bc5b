package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv key not found")

// Store is the durable string-keyed storage the offline cache sits on.
// Remove is idempotent: removing a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	RemoveMany(ctx context.Context, keys []string) error
	Close() error
}
