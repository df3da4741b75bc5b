package offline

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/lock"
)

const (
	DefaultPrefix  = "offline_cache"
	DefaultExpiry  = 24 * time.Hour
	DefaultVersion = "1.0"
)

// Config holds the service-wide defaults. Zero fields fall back to the
// package defaults; a negative DefaultExpiry makes writes permanent unless a
// call overrides it.
type Config struct {
	Prefix         string
	DefaultExpiry  time.Duration
	DefaultVersion string

	// StrictRemove makes RemoveItem return store failures instead of
	// logging them.
	StrictRemove bool

	// KeepMismatchedVersions leaves entries written under another version in
	// the store so readers of that version can still use them.
	KeepMismatchedVersions bool
}

func DefaultConfig() Config {
	return Config{
		Prefix:         DefaultPrefix,
		DefaultExpiry:  DefaultExpiry,
		DefaultVersion: DefaultVersion,
	}
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.DefaultExpiry == 0 {
		c.DefaultExpiry = DefaultExpiry
	}
	if c.DefaultExpiry < 0 {
		c.DefaultExpiry = 0
	}
	if c.DefaultVersion == "" {
		c.DefaultVersion = DefaultVersion
	}
	return c
}

// Option configures a Service's collaborators.
type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocker sets the lock used by Update. The default is an in-process
// keyed mutex.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

type itemOptions struct {
	expiry  time.Duration
	version string
}

// ItemOption overrides the service defaults for a single call.
type ItemOption func(*itemOptions)

// WithExpiry sets the entry lifetime. Zero or negative disables time-based
// expiry. Reads ignore it.
func WithExpiry(d time.Duration) ItemOption {
	return func(o *itemOptions) { o.expiry = d }
}

func NoExpiry() ItemOption {
	return WithExpiry(0)
}

// WithVersion sets the version written, or expected on read.
func WithVersion(v string) ItemOption {
	return func(o *itemOptions) {
		if v != "" {
			o.version = v
		}
	}
}
