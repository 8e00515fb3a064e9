package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const defaultBuffer = 16

// Hub fans load events out to in-process subscribers such as websocket
// clients. A subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan domain.Event
	next   uint64
	buffer int
	logger *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[uint64]chan domain.Event), buffer: buffer, logger: logger}
}

func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("event_dropped", "subscriber", id, "kind", event.Kind)
		}
	}
	return nil
}

// Subscribe returns the event channel and a function that closes it.
func (h *Hub) Subscribe() (<-chan domain.Event, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan domain.Event, h.buffer)
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
