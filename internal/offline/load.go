package offline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Loader fetches the live value for a key on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Load returns the cached value for key if one is valid, otherwise it calls
// load and caches the result. Concurrent misses on one key share a single
// load call. That call runs detached from caller cancellation, so a caller
// that gives up returns ctx.Err() without failing the others. Failing to
// cache a loaded value is logged, not returned. The bool reports a cache hit.
func Load[T any](ctx context.Context, s *Service, key string, load Loader[T], opts ...ItemOption) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, ErrEmptyKey
	}

	v, ok, err := Get[T](ctx, s, key, opts...)
	switch {
	case err != nil:
		s.log.WithError(err).WithField("key", key).Warn("cache read failed, loading live")
	case ok:
		return v, true, nil
	}

	// The shared load outlives any single caller; the loader bounds its own
	// duration (the upstream client has a timeout).
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(s.fullKey(key), func() (any, error) {
		fresh, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := s.SetItem(loadCtx, key, fresh, opts...); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("failed to cache loaded value")
		}
		return fresh, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, false, res.Err
	}
	// a nil interface value boxes to a nil any
	if res.Val == nil {
		return zero, false, nil
	}
	fresh, ok := res.Val.(T)
	if !ok {
		return zero, false, fmt.Errorf("load %s: concurrent loader returned %T", key, res.Val)
	}
	return fresh, false, nil
}

// Update runs fn on the current value of key and stores its result while
// holding the service lock for key. found is false when there was no valid
// entry. If fn returns an error nothing is written.
func Update[T any](ctx context.Context, s *Service, key string, fn func(cur T, found bool) (T, error), opts ...ItemOption) (T, error) {
	var zero T
	if key == "" {
		return zero, ErrEmptyKey
	}

	unlock, err := s.locker.Lock(ctx, s.fullKey(key))
	if err != nil {
		return zero, fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.WithFields(logrus.Fields{"key": key, "err": err}).Warn("failed to release cache lock")
		}
	}()

	cur, found, err := Get[T](ctx, s, key, opts...)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur, found)
	if err != nil {
		return zero, err
	}
	if err := s.SetItem(ctx, key, next, opts...); err != nil {
		return zero, err
	}
	return next, nil
}
