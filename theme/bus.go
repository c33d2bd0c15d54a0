package theme

import (
	"sync"

	"github.com/gogpu/journal/scene"
)

// Bus delivers theme changes to the subscribers of one editing session.
//
// Delivery is latest-value-wins: a slow subscriber never blocks Publish and
// only ever observes the most recent theme it has not yet received.
// Bus is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan scene.Theme
	nextID int
	last   scene.Theme
	has    bool
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan scene.Theme)}
}

// Subscribe registers a subscriber. The current theme, if any, is delivered
// immediately. The returned function unsubscribes and closes the channel.
func (b *Bus) Subscribe() (<-chan scene.Theme, func()) {
	ch := make(chan scene.Theme, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.has {
		ch <- b.last
	}
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish sends t to every subscriber, replacing any undelivered value.
func (b *Bus) Publish(t scene.Theme) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last, b.has = t, true
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- t
	}
}

// Current returns the last published theme.
func (b *Bus) Current() (scene.Theme, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.has
}

// Close closes every subscriber channel. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
