package events

import (
	"sync"
	"sync/atomic"

	"splitpay/core/types"
)

// Hub fans committed events out to live subscribers such as websocket
// streams. Delivery never blocks the publisher: a subscriber whose channel is
// full misses the event and its drop counter grows.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

// Subscription receives rendered events until it is closed.
type Subscription struct {
	id      uint64
	hub     *Hub
	ch      chan *types.Event
	filter  map[string]struct{}
	dropped atomic.Uint64
	once    sync.Once
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a subscriber with the given buffer size. When only is
// non-empty only those event types are delivered.
func (h *Hub) Subscribe(buffer int, only ...string) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	var filter map[string]struct{}
	if len(only) > 0 {
		filter = make(map[string]struct{}, len(only))
		for _, t := range only {
			filter[t] = struct{}{}
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{id: h.nextID, hub: h, ch: make(chan *types.Event, buffer), filter: filter}
	h.subs[sub.id] = sub
	return sub
}

// Emit implements the Emitter interface.
func (h *Hub) Emit(evt Event) {
	rendered := Render(evt)
	if rendered == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.filter != nil {
			if _, ok := sub.filter[rendered.Type]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- rendered.Clone():
		default:
			sub.dropped.Add(1)
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C returns the delivery channel. It is closed by Close.
func (s *Subscription) C() <-chan *types.Event { return s.ch }

// Dropped reports how many events were skipped because the buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}
