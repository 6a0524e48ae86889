package prefstore

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Pref is a typed handle bound to one key within a store. Handles are cheap
// to construct, hold no persisted state of their own, and are safe for
// concurrent use. The zero value is not usable; construct handles through
// the Store's typed constructors or Object.
type Pref[T any] struct {
	store   string
	key     string
	def     T
	adapter Adapter[T]
	driver  Driver
	hub     *hub
	logger  *zap.Logger
	buffer  int

	mu      sync.Mutex
	watches map[int]func()
	next    int
	closed  bool
}

func newPref[T any](s *Store, key string, def T, adapter Adapter[T]) *Pref[T] {
	return &Pref[T]{
		store:   s.name,
		key:     key,
		def:     def,
		adapter: adapter,
		driver:  s.driver,
		hub:     s.hub,
		logger:  s.logger,
		buffer:  s.buffer,
		watches: make(map[int]func()),
	}
}

// Key returns the key this handle is bound to.
func (p *Pref[T]) Key() string { return p.key }

// Default returns the handle's default value.
func (p *Pref[T]) Default() T { return p.def }

// Get returns the current value. An absent key, a failed host read, or an
// undecodable stored value all degrade to the handle's default.
func (p *Pref[T]) Get(ctx context.Context) T {
	data, err := p.driver.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("read failed, using default",
				zap.String("store", p.store), zap.String("key", p.key), zap.Error(err))
		}
		return p.def
	}

	v, err := p.adapter.Decode(data)
	if err != nil {
		p.logger.Debug("undecodable value, using default",
			zap.String("store", p.store), zap.String("key", p.key), zap.Error(err))
		return p.def
	}
	return v
}

// Set encodes v and persists it. The host store raises the resulting change
// notification; Set itself never emits.
func (p *Pref[T]) Set(ctx context.Context, v T) error {
	data, err := p.adapter.Encode(v)
	if err != nil {
		return err
	}
	if err := p.driver.Put(ctx, p.key, data); err != nil {
		p.logger.Error("write failed",
			zap.String("store", p.store), zap.String("key", p.key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes the key, so subsequent Gets return the default.
func (p *Pref[T]) Delete(ctx context.Context) error {
	err := p.driver.Delete(ctx, p.key)
	if err != nil {
		p.logger.Error("delete failed",
			zap.String("store", p.store), zap.String("key", p.key), zap.Error(err))
	}
	return err
}

// IsSet reports whether the key currently holds a value.
func (p *Pref[T]) IsSet(ctx context.Context) (bool, error) {
	return p.driver.Contains(ctx, p.key)
}

// Watch returns a stream of values for this key. The current value is
// emitted immediately; after that, one value is emitted per change event
// matching this key, re-read from the store at emission time. The stream
// ends (channel closed) when ctx is canceled or the handle is closed.
//
// Emissions are delivered on the host store's callback goroutine into a
// buffered channel; if the receiver falls more than the watch buffer
// behind, further emissions are dropped with a warning until it catches up.
func (p *Pref[T]) Watch(ctx context.Context) (<-chan T, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.mu.Unlock()

	ch := make(chan T, p.buffer)
	var (
		emu  sync.Mutex
		dead bool
	)
	emit := func() {
		v := p.Get(ctx)
		emu.Lock()
		defer emu.Unlock()
		if dead {
			return
		}
		select {
		case ch <- v:
		default:
			p.logger.Warn("watch buffer full, dropping update",
				zap.String("store", p.store), zap.String("key", p.key))
		}
	}

	cancel, err := p.hub.subscribe(func(key string) {
		if key == p.key {
			emit()
		}
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			emu.Lock()
			dead = true
			close(ch)
			emu.Unlock()
			close(done)
		})
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		stop()
		return nil, ErrClosed
	}
	id := p.next
	p.next++
	p.watches[id] = stop
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			p.detach(id)
		case <-done:
		}
	}()

	emit()
	return ch, nil
}

func (p *Pref[T]) detach(id int) {
	p.mu.Lock()
	stop := p.watches[id]
	delete(p.watches, id)
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Close tears down every live watch on this handle and rejects new ones.
// Get, Set, Delete and IsSet remain usable; only the streams detach.
func (p *Pref[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	stops := make([]func(), 0, len(p.watches))
	for _, stop := range p.watches {
		stops = append(stops, stop)
	}
	p.watches = make(map[int]func())
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}
