package platform

import (
	"sync"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
)

// DefaultBuffer is the subscription buffer used when callers pass zero.
const DefaultBuffer = 256

// Hub fans events out to subscribers over bounded channels. Publishing never
// blocks: an event that does not fit a subscriber's buffer is dropped for
// that subscriber and logged.
type Hub[E any] struct {
	name   string
	mu     sync.Mutex
	subs   map[*Subscription[E]]struct{}
	closed bool
}

// Subscription is one consumer's view of a Hub.
type Subscription[E any] struct {
	hub  *Hub[E]
	ch   chan E
	once sync.Once
}

// NewHub returns a hub; name only labels log lines.
func NewHub[E any](name string) *Hub[E] {
	return &Hub[E]{name: name, subs: make(map[*Subscription[E]]struct{})}
}

// Subscribe registers a new consumer. Subscribing to a closed hub returns an
// already-closed subscription.
func (h *Hub[E]) Subscribe(buffer int) *Subscription[E] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription[E]{hub: h, ch: make(chan E, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every live subscriber.
func (h *Hub[E]) Publish(e E) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- e:
		default:
			L_warn("event dropped, subscriber buffer full", "hub", h.name, "buffer", cap(s.ch))
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub[E]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscription. Later publishes are ignored.
func (h *Hub[E]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
}

// Events returns the channel events arrive on. It is closed when the
// subscription or its hub is closed.
func (s *Subscription[E]) Events() <-chan E {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[E]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	delete(s.hub.subs, s)
	s.once.Do(func() { close(s.ch) })
}
