package docgraph

import (
	"sync"

	"go.uber.org/zap"

	"platform-service/pkg/logger"
)

// Event is published after a successful state transition. Delivery is
// best-effort: a slow subscriber never blocks the transition commit.
type Event struct {
	TenantID   uint   `json:"tenant_id"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	FromState  string `json:"from_state"`
	ToState    string `json:"to_state"`
	OperatorID uint   `json:"operator_id"`
}

// EventBus fans transition events out to in-process subscribers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a subscriber and returns its delivery channel. The
// channel is buffered; events beyond the buffer are dropped.
func (b *EventBus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber without blocking. Dropped
// deliveries are logged and counted, not retried.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logger.GetLogger().Warn("Dropping transition event for slow subscriber",
				zap.String("entity_type", event.EntityType),
				zap.Uint("entity_id", event.EntityID),
				zap.String("to_state", event.ToState))
		}
	}
}
