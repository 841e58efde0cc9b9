package presence

import "sync"

// InteractionSource delivers user interaction notifications.
//
// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once has no further effect.
type InteractionSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// InteractionBus is an in-process InteractionSource. The zero value is ready
// to use.
type InteractionBus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func()
}

// Subscribe registers fn. A nil fn is ignored.
func (b *InteractionBus) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[uint64]func())
	}
	b.next++
	id := b.next
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Notify calls every subscriber. Subscribers run on the caller's goroutine.
func (b *InteractionBus) Notify() {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of subscribers.
func (b *InteractionBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var _ InteractionSource = (*InteractionBus)(nil)
