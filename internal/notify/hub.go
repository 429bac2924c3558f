package notify

import (
	"context"
	"encoding/json"
	"sync"

	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/metrics"

	"go.uber.org/zap"
)

// Hub fans notifications out to every subscriber of the shared group.
type Hub struct {
	log *zap.Logger

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log, subscribers: make(map[chan []byte]struct{})}
}

// Subscribe joins the group. The caller must invoke the returned cancel
// function to avoid leaks; it closes the channel.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 16)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	metrics.NotifyClients.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			close(ch)
			h.mu.Unlock()
			metrics.NotifyClients.Dec()
		})
	}
	return ch, cancel
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast delivers n to every subscriber without blocking on slow ones.
func (h *Hub) Broadcast(n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error("marshal notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- data:
		default:
			// drop the oldest pending message so a slow client never blocks the group
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- data:
			default:
			}
		}
	}
}

// Publish implements app.Notifier for single-instance deployments.
func (h *Hub) Publish(_ context.Context, n domain.Notification) error {
	h.Broadcast(n)
	return nil
}
