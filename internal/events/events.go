package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSessionCreated      = "payment_session_created"
	EventPaymentPaid         = "payment_paid"
	EventPaymentFailed       = "payment_failed"
	EventBookingStatusChange = "booking_status_changed"
)

// PaymentEventPayload describes the minimal booking snapshot for event
// consumers (notifiers, sync workers).
type PaymentEventPayload struct {
	BookingID       string   `json:"booking_id"`
	UserID          string   `json:"user_id"`
	ShelterID       string   `json:"shelter_id"`
	Amount          *float64 `json:"amount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	PaymentStatus   string   `json:"payment_status,omitempty"`
	BookingStatus   string   `json:"booking_status,omitempty"`
	TransactionID   string   `json:"transaction_id,omitempty"`
	ProviderOrderID int64    `json:"provider_order_id,omitempty"`
	ChangedBy       string   `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
