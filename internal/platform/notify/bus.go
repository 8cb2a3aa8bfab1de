package notify

import (
	"context"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// DefaultBufferSize is the memory bus capacity
const DefaultBufferSize = 256

// Handler consumes booking events
type Handler interface {
	Handle(ctx context.Context, e booking.Event) error
}

// MemoryBus is an in-process event bus backed by a buffered channel
type MemoryBus struct {
	events chan booking.Event
	logger *logger.Logger
}

// NewMemoryBus creates a bus with the given capacity
func NewMemoryBus(size int, log *logger.Logger) *MemoryBus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &MemoryBus{
		events: make(chan booking.Event, size),
		logger: log.WithComponent("memory_bus"),
	}
}

// Publish enqueues an event without blocking. A full buffer drops the event.
func (b *MemoryBus) Publish(_ context.Context, e booking.Event) error {
	select {
	case b.events <- e:
	default:
		b.logger.Warn("event bus full, dropping event",
			"event_id", e.ID,
			"booking_id", e.BookingID,
			"kind", e.Kind,
			"status", e.Status)
	}
	return nil
}

// Run drains the bus into h until ctx is done
func (b *MemoryBus) Run(ctx context.Context, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.events:
			if err := h.Handle(ctx, e); err != nil {
				b.logger.Error("failed to handle event",
					"event_id", e.ID,
					"booking_id", e.BookingID,
					"error", err)
			}
		}
	}
}
