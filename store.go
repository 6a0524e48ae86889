package prefstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("prefstore: not found")
	ErrTypeMismatch = errors.New("prefstore: type mismatch")
	ErrClosed       = errors.New("prefstore: closed")
)

// Driver describes the host key-value store a Store is backed by.
// Implementations must be thread-safe and must invoke registered change
// listeners once per mutated key, including once per key removed by Clear.
type Driver interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error

	// Listen registers a change callback. The callback receives the key of
	// every subsequent mutation until the returned stop function is called.
	// It runs on the driver's own goroutine.
	Listen(fn func(key string)) (stop func(), err error)
}

const defaultWatchBuffer = 16

// Option customizes Store behavior.
type Option func(*Store)

// WithDriver specifies the host store backend.
// If no backend option is provided, NewMemory() will be used.
func WithDriver(d Driver) Option {
	return func(s *Store) {
		if d != nil {
			s.driver = d
		}
	}
}

// WithDir backs the store with a JSON file named after the store under dir.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithRedis backs the store with a Redis client. Keys are namespaced by the
// store name; change notifications travel over a per-store pub/sub channel.
func WithRedis(client redis.UniversalClient) Option {
	return func(s *Store) {
		s.redis = client
	}
}

// WithLogger specifies a logger for operation logging.
// If not provided, logging is disabled.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWatchBuffer sets the per-watch channel capacity (default 16).
// Emissions to a full watch channel are dropped with a warning.
func WithWatchBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// Store is a named preference collection. It hands out typed per-key
// handles and owns the shared change stream their watches fan out of.
type Store struct {
	name   string
	driver Driver
	logger *zap.Logger
	buffer int
	hub    *hub

	dir   string
	redis redis.UniversalClient
}

// Open opens or creates the named preference store.
//
// The backend is chosen by option: WithDriver wins, then WithRedis, then
// WithDir; with no backend option the store is held in memory. Typed
// constructors never write; the first write happens on a handle's Set.
func Open(ctx context.Context, name string, opts ...Option) (*Store, error) {
	s := &Store{
		name:   name,
		logger: zap.NewNop(),
		buffer: defaultWatchBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.driver == nil {
		switch {
		case s.redis != nil:
			s.driver = NewRedis(s.redis, name)
		case s.dir != "":
			d, err := NewFile(s.dir, name, WithFileLogger(s.logger))
			if err != nil {
				return nil, fmt.Errorf("prefstore: open %s: %w", name, err)
			}
			s.driver = d
		default:
			s.driver = NewMemory()
		}
	}

	s.hub = newHub(s.driver, s.logger)
	return s, nil
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// Raw exposes the underlying host driver for advanced use.
func (s *Store) Raw() Driver { return s.driver }

// Bool constructs a handle for a boolean preference.
func (s *Store) Bool(key string, def bool) *Pref[bool] {
	return newPref(s, key, def, BoolAdapter)
}

// Int constructs a handle for an integer preference.
func (s *Store) Int(key string, def int) *Pref[int] {
	return newPref(s, key, def, IntAdapter)
}

// Int64 constructs a handle for a 64-bit integer preference.
func (s *Store) Int64(key string, def int64) *Pref[int64] {
	return newPref(s, key, def, Int64Adapter)
}

// Float64 constructs a handle for a floating-point preference.
func (s *Store) Float64(key string, def float64) *Pref[float64] {
	return newPref(s, key, def, Float64Adapter)
}

// String constructs a handle for a string preference.
func (s *Store) String(key string, def string) *Pref[string] {
	return newPref(s, key, def, StringAdapter)
}

// StringSet constructs a handle for a string-set preference. Sets are
// deduplicated and sorted on write, so element order never round-trips.
func (s *Store) StringSet(key string, def []string) *Pref[[]string] {
	return newPref(s, key, def, StringSetAdapter)
}

// Object constructs a handle for an arbitrary payload type. A nil adapter
// defaults to JSON[T]().
func Object[T any](s *Store, key string, def T, adapter Adapter[T]) *Pref[T] {
	if adapter == nil {
		adapter = JSON[T]()
	}
	return newPref(s, key, def, adapter)
}

// Clear removes every entry in the store. The host driver raises one change
// notification per removed key, so live watches observe their defaults.
func (s *Store) Clear(ctx context.Context) error {
	err := s.driver.Clear(ctx)
	if err != nil {
		s.logger.Error("clear failed", zap.String("store", s.name), zap.Error(err))
	}
	return err
}
