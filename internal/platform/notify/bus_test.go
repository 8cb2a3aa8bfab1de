package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/platform/notify"
	"github.com/kislikjeka/handygo/pkg/logger"
)

type collectingHandler struct {
	mu     sync.Mutex
	events []booking.Event
	done   chan struct{}
	want   int
}

func (h *collectingHandler) Handle(_ context.Context, e booking.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	if len(h.events) == h.want {
		close(h.done)
	}
	return nil
}

func TestMemoryBus_DeliversInOrder(t *testing.T) {
	bus := notify.NewMemoryBus(8, logger.Discard())
	h := &collectingHandler{done: make(chan struct{}), want: 3}

	statuses := []booking.Status{booking.StatusPending, booking.StatusAccepted, booking.StatusInProgress}
	for _, s := range statuses {
		require.NoError(t, bus.Publish(context.Background(), event(s)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx, h)

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not delivered")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range statuses {
		assert.Equal(t, s, h.events[i].Status)
	}
}

func TestMemoryBus_FullBufferDrops(t *testing.T) {
	bus := notify.NewMemoryBus(1, logger.Discard())

	require.NoError(t, bus.Publish(context.Background(), event(booking.StatusPending)))
	// Nothing drains the bus; the second publish must not block.
	require.NoError(t, bus.Publish(context.Background(), event(booking.StatusAccepted)))

	h := &collectingHandler{done: make(chan struct{}), want: 1}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx, h)

	<-h.done
	time.Sleep(20 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.events, 1)
	assert.Equal(t, booking.StatusPending, h.events[0].Status)
}
