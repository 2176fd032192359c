// AngelaMos | 2026
// hub.go

package notification

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// Hub fans events out to the stream connections held by this process.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for userID. The returned cancel func
// must be called once the listener goes away.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], s)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
		})
	}

	return s.ch, cancel
}

// Deliver never blocks; a listener with a full buffer misses the event.
func (h *Hub) Deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[e.RecipientID] {
		select {
		case s.ch <- e:
		default:
			h.logger.Warn("notification stream buffer full, dropping event",
				"recipient_id", e.RecipientID,
				"notification_id", e.Notification.ID,
			)
		}
	}
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Publish delivers in-process. It makes Hub a Publisher for single
// replica deployments.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.Deliver(e)
	return nil
}
