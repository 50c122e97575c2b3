package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventPaymentPaid, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := PaymentEventPayload{BookingID: "booking-1", PaymentStatus: "paid"}
	require.NoError(t, bus.PublishJSON(EventPaymentPaid, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventPaymentPaid, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var got PaymentEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, "booking-1", got.BookingID)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	count := 0
	bus.Subscribe(EventPaymentFailed, func(event *Event) error { count++; return nil })
	bus.Subscribe(EventPaymentFailed, func(event *Event) error { count++; return nil })
	// Unrelated type stays silent.
	bus.Subscribe(EventSessionCreated, func(event *Event) error { count += 100; return nil })

	require.NoError(t, bus.PublishJSON(EventPaymentFailed, PaymentEventPayload{BookingID: "b"}))
	assert.Equal(t, 2, count)
}

func TestEventBusNil(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventPaymentPaid, PaymentEventPayload{}))
}
