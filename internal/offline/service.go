// Package offline is an offline-first cache over a kv.Store. Entries carry a
// write timestamp, an optional absolute expiry and a version tag; entries
// that are expired, mismatched or unreadable read as misses.
package offline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/lock"
)

// Service is safe for concurrent use. Concurrent writes to one key are
// last-writer-wins; use Update for read-modify-write.
type Service struct {
	store   kv.Store
	cfg     Config
	clock   clock.Clock
	log     logrus.FieldLogger
	metrics Metrics
	locker  lock.Locker
	loads   singleflight.Group
}

// Metadata describes a stored entry without its payload. Times are epoch
// milliseconds.
type Metadata struct {
	Timestamp int64  `json:"timestamp"`
	Expiry    *int64 `json:"expiry"`
	Version   string `json:"version"`
}

func (m Metadata) CachedAt() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// ExpiresAt returns the absolute expiry, or false for entries that never
// expire by time.
func (m Metadata) ExpiresAt() (time.Time, bool) {
	if m.Expiry == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*m.Expiry), true
}

func New(store kv.Store, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg.withDefaults(),
		clock:   clock.New(),
		log:     logrus.StandardLogger(),
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewKeyed()
	}
	return s
}

func (s *Service) Config() Config {
	return s.cfg
}

// SetItem writes data under key, replacing any previous entry.
func (s *Service) SetItem(ctx context.Context, key string, data any, opts ...ItemOption) error {
	if key == "" {
		return ErrEmptyKey
	}
	o := s.itemOptions(opts)
	now := s.nowMillis()
	entry := codec.Entry[any]{
		Data:      data,
		Timestamp: now,
		Version:   o.version,
	}
	if o.expiry > 0 {
		exp := now + o.expiry.Milliseconds()
		entry.Expiry = &exp
	}

	raw, err := codec.Encode(entry)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.store.Set(ctx, s.fullKey(key), raw); err != nil {
		s.metrics.WriteError()
		return fmt.Errorf("%w: set %s: %w", ErrStorageWrite, key, err)
	}
	s.metrics.Write()
	return nil
}

// GetItem decodes the payload stored under key into dest and reports whether
// a usable entry was found. Missing, undecodable, version-mismatched and
// expired entries are misses, not errors; expired ones are also deleted.
// A nil dest only checks validity. dest is unspecified after a miss.
func (s *Service) GetItem(ctx context.Context, key string, dest any, opts ...ItemOption) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	o := s.itemOptions(opts)
	full := s.fullKey(key)

	raw, err := s.store.Get(ctx, full)
	if errors.Is(err, kv.ErrNotFound) {
		s.metrics.Miss(MissAbsent)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %w", ErrStorageRead, key, err)
	}

	entry, err := codec.Decode[codec.RawMessage](raw)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("ignoring undecodable cache entry")
		s.metrics.Miss(MissDecode)
		return false, nil
	}
	if entry.Version != o.version {
		s.metrics.Miss(MissVersion)
		if !s.cfg.KeepMismatchedVersions {
			s.cleanup(ctx, key, full)
		}
		return false, nil
	}
	if entry.ExpiredAt(s.nowMillis()) {
		s.metrics.Miss(MissExpired)
		s.cleanup(ctx, key, full)
		return false, nil
	}
	if dest != nil {
		if err := codec.Unmarshal(entry.Data, dest); err != nil {
			s.log.WithError(err).WithField("key", key).Debug("cached payload does not fit destination")
			s.metrics.Miss(MissDecode)
			return false, nil
		}
	}
	s.metrics.Hit()
	return true, nil
}

// Get is the typed form of GetItem.
func Get[T any](ctx context.Context, s *Service, key string, opts ...ItemOption) (T, bool, error) {
	var v T
	ok, err := s.GetItem(ctx, key, &v, opts...)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// HasValidItem reports whether GetItem would hit.
func (s *Service) HasValidItem(ctx context.Context, key string, opts ...ItemOption) (bool, error) {
	return s.GetItem(ctx, key, nil, opts...)
}

// RemoveItem deletes key. Removing a missing key succeeds. Store failures
// are returned only when Config.StrictRemove is set.
func (s *Service) RemoveItem(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := s.store.Remove(ctx, s.fullKey(key))
	if err == nil {
		return nil
	}
	if s.cfg.StrictRemove {
		return fmt.Errorf("%w: remove %s: %w", ErrStorageRemove, key, err)
	}
	s.log.WithError(err).WithField("key", key).Warn("failed to remove cache entry")
	return nil
}

// GetMetadata returns the stored metadata for key without checking expiry or
// version. It returns nil when the key is absent or undecodable.
func (s *Service) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	raw, err := s.store.Get(ctx, s.fullKey(key))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrStorageRead, key, err)
	}
	entry, err := codec.Decode[codec.RawMessage](raw)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("ignoring undecodable cache entry")
		return nil, nil
	}
	return &Metadata{
		Timestamp: entry.Timestamp,
		Expiry:    entry.Expiry,
		Version:   entry.Version,
	}, nil
}

// ClearAll removes every key under the service prefix and nothing else.
func (s *Service) ClearAll(ctx context.Context) error {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("%w: list keys: %w", ErrStorageClear, err)
	}
	ns := s.cfg.Prefix + ":"
	ours := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, ns) {
			ours = append(ours, k)
		}
	}
	if len(ours) == 0 {
		return nil
	}
	if err := s.store.RemoveMany(ctx, ours); err != nil {
		return fmt.Errorf("%w: remove %d keys: %w", ErrStorageClear, len(ours), err)
	}
	s.metrics.Cleared(len(ours))
	s.log.WithFields(logrus.Fields{"prefix": s.cfg.Prefix, "removed": len(ours)}).Info("cleared offline cache")
	return nil
}

// cleanup deletes an entry found invalid on read. Failure leaves the miss in
// place and is only logged.
func (s *Service) cleanup(ctx context.Context, key, full string) {
	if err := s.store.Remove(ctx, full); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("failed to delete invalid cache entry")
		return
	}
	s.metrics.Cleanup()
}

func (s *Service) fullKey(key string) string {
	return s.cfg.Prefix + ":" + key
}

func (s *Service) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

func (s *Service) itemOptions(opts []ItemOption) itemOptions {
	o := itemOptions{
		expiry:  s.cfg.DefaultExpiry,
		version: s.cfg.DefaultVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
