// Package events carries domain events from the services to in-process
// subscribers and optional external forwarders.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event names
const (
	OrderCreated       = "order.created"
	OrderUpdated       = "order.updated"
	OrderStatusChanged = "order.status_changed"
	OrderAssigned      = "order.assigned"
	OrderDeleted       = "order.deleted"
	PaymentReminderDue = "payment_reminder.due"
	AllEvents          = "*"
)

// Event is published after a change has been committed
type Event struct {
	Name       string                 `json:"name"`
	OrderID    string                 `json:"orderId"`
	ActorID    string                 `json:"actorId"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// New builds an event stamped with the current time
func New(name, orderID, actorID string, data map[string]interface{}) Event {
	return Event{
		Name:       name,
		OrderID:    orderID,
		ActorID:    actorID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler reacts to an event. Handlers must not block for long.
type Handler func(ctx context.Context, event Event)

// Publisher is what services depend on
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type subscription struct {
	id      int
	handler Handler
}

// Bus is a synchronous in-process event bus. Subscribing to AllEvents
// receives every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   int
	logger   *zap.Logger
}

// NewBus creates an empty bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Subscribe registers handler for events named name and returns a function
// that removes it again
func (b *Bus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[name]
		for i, s := range subs {
			if s.id == id {
				b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to its subscribers in registration order. A
// panicking handler is logged and does not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.handlers[event.Name])+len(b.handlers[AllEvents]))
	subs = append(subs, b.handlers[event.Name]...)
	subs = append(subs, b.handlers[AllEvents]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s.handler, event)
	}
}

func (b *Bus) deliver(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", event.Name),
				zap.String("order_id", event.OrderID),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
