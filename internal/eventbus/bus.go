// Package eventbus is a typed publish/subscribe hub. One Bus instance fans
// validated wire events out to the read models that consume them.
package eventbus

import (
	"sync"

	"go.uber.org/zap"
)

type entry[E any] struct {
	id uint64
	fn func(E)
}

// Bus delivers values of type E to handlers registered for the key a
// configured extractor derives from each value. Every Subscribe call is its
// own registration identified by an id token, so handlers sharing a source
// literal never collide; duplicate-free remounting comes from retaining and
// calling the unsubscribe funcs. Publish snapshots the handler list before
// delivery, so subscribing or unsubscribing from inside a handler never
// affects the in-flight pass. A panicking handler is contained and logged;
// its siblings still run.
type Bus[K comparable, E any] struct {
	keyOf  func(E) K
	logger *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[K][]entry[E]
}

func New[K comparable, E any](keyOf func(E) K, logger *zap.Logger) *Bus[K, E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus[K, E]{
		keyOf:  keyOf,
		logger: logger,
		subs:   make(map[K][]entry[E]),
	}
}

// Subscribe registers fn for key and returns the unsubscribe func for this
// registration. Unsubscribe is safe to call more than once; after the first
// call the registration receives no further events.
func (b *Bus[K, E]) Subscribe(key K, fn func(E)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], entry[E]{id: id, fn: fn})
	b.mu.Unlock()

	return func() { b.remove(key, id) }
}

func (b *Bus[K, E]) remove(key K, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[key]
	for i, e := range list {
		if e.id == id {
			b.subs[key] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every handler registered for its key at call time.
// Handlers run synchronously in registration order on the caller's
// goroutine, so events published from a single control flow are observed in
// publish order.
func (b *Bus[K, E]) Publish(e E) {
	key := b.keyOf(e)

	b.mu.RLock()
	snapshot := make([]entry[E], len(b.subs[key]))
	copy(snapshot, b.subs[key])
	b.mu.RUnlock()

	for _, ent := range snapshot {
		b.invoke(ent.fn, e)
	}
}

func (b *Bus[K, E]) invoke(fn func(E), e E) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler_panic", zap.Any("recovered", r))
		}
	}()
	fn(e)
}

// SubscriberCount reports how many handlers are registered for key.
func (b *Bus[K, E]) SubscriberCount(key K) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}
