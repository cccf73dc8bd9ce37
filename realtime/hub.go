// Package realtime delivers notification events to connected subscribers.
package realtime

import (
	"context"
	"sync"

	"writing-challenge-api/models"
)

const subscriberBuffer = 16

// Hub keeps in-memory subscribers grouped by user. It is process-local; use
// RedisBridge to fan events out across instances.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan models.NotificationEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint]map[chan models.NotificationEvent]struct{})}
}

// Subscribe registers a user-specific subscriber and returns a channel plus an
// unsubscribe function that must be called on disconnect.
func (h *Hub) Subscribe(userID uint) (<-chan models.NotificationEvent, func()) {
	ch := make(chan models.NotificationEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[chan models.NotificationEvent]struct{})
		h.subscribers[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subscribers, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Subscribers returns the number of live subscriptions for a user.
func (h *Hub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Publish sends an event to all subscribers of the recipient. Slow consumers
// are skipped so producers never block.
func (h *Hub) Publish(_ context.Context, ev models.NotificationEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[ev.RecipientID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}
