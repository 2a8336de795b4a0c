package notify

import (
	"sync"

	"farmer_assist/pkg/models"
)

const subscriberBuffer = 16

// Subscription receives notifications that reach its location until it is
// cancelled or the hub closes.
type Subscription struct {
	C        <-chan models.Notification
	ch       chan models.Notification
	state    string
	district string
	hub      *Hub
	dropped  int
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// Hub fans notifications out to live subscribers. Publish never blocks; a
// subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a listener located in state/district. Empty location
// receives only messages addressed to everyone.
func (h *Hub) Subscribe(state, district string) *Subscription {
	ch := make(chan models.Notification, subscriberBuffer)
	s := &Subscription{C: ch, ch: ch, state: state, district: district, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers n to every matching subscriber and returns how many
// received it.
func (h *Hub) Publish(n models.Notification) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.subs {
		if !n.Reaches(s.state, s.district) {
			continue
		}
		select {
		case s.ch <- n:
			delivered++
		default:
			s.dropped++
		}
	}
	return delivered
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
		delete(h.subs, s)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}
