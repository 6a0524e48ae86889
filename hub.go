package prefstore

import (
	"sync"

	"go.uber.org/zap"
)

// hub multiplexes the host store's single change listener out to any number
// of subscribers. The driver listener is registered lazily when the first
// subscriber arrives and deregistered as soon as the last one leaves, so an
// idle store holds no listener registration at all.
type hub struct {
	driver Driver
	logger *zap.Logger

	mu   sync.Mutex
	subs map[int]func(key string)
	next int
	stop func()
}

func newHub(driver Driver, logger *zap.Logger) *hub {
	return &hub{
		driver: driver,
		logger: logger,
		subs:   make(map[int]func(key string)),
	}
}

// subscribe adds fn to the fan-out set and returns a cancel function.
// fn is invoked on the driver's callback goroutine; it must not block.
func (h *hub) subscribe(fn func(key string)) (cancel func(), err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subs) == 0 {
		stop, err := h.driver.Listen(h.dispatch)
		if err != nil {
			h.logger.Error("change listener registration failed", zap.Error(err))
			return nil, err
		}
		h.stop = stop
	}

	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() { once.Do(func() { h.unsubscribe(id) }) }, nil
}

func (h *hub) unsubscribe(id int) {
	h.mu.Lock()
	delete(h.subs, id)
	var stop func()
	if len(h.subs) == 0 {
		stop = h.stop
		h.stop = nil
	}
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// dispatch forwards one change event to every current subscriber, in the
// order the driver raised it. Subscribers are snapshotted under the lock so
// a callback may subscribe or cancel without deadlocking; a subscriber that
// cancels concurrently may still see one in-flight event.
func (h *hub) dispatch(key string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// active reports whether a driver listener is currently registered.
func (h *hub) active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}
