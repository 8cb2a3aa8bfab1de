package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
)

// RoutingKeyPrefix prefixes the event kind in every routing key
const RoutingKeyPrefix = "booking."

// RoutingKey returns the topic routing key of an event, e.g. booking.status_changed
func RoutingKey(e booking.Event) string {
	return RoutingKeyPrefix + string(e.Kind)
}

// encode serializes an event for the wire
func encode(e booking.Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

// decode parses a wire payload. An event without booking ID or kind is rejected.
func decode(body []byte) (booking.Event, error) {
	var e booking.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return booking.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Kind == "" {
		return booking.Event{}, errors.New("event has no kind")
	}
	if e.BookingID == uuid.Nil {
		return booking.Event{}, errors.New("event has no booking id")
	}
	return e, nil
}
