package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// DefaultPrefetch bounds the unacknowledged deliveries per consumer
const DefaultPrefetch = 8

// Handler consumes decoded booking events
type Handler interface {
	Handle(ctx context.Context, e booking.Event) error
}

// Consumer reads booking events from a durable queue bound to every
// booking.* routing key
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *logger.Logger
}

// NewConsumer dials url, declares the exchange and queue and binds them
func NewConsumer(url, exchange, queue string, log *logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := declareExchange(ch, exchange); err != nil {
		return fail(err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("declare queue: %w", err))
	}
	if err := ch.QueueBind(q.Name, RoutingKeyPrefix+"#", exchange, false, nil); err != nil {
		return fail(fmt.Errorf("bind queue: %w", err))
	}
	if err := ch.Qos(DefaultPrefetch, 0, false); err != nil {
		return fail(fmt.Errorf("set qos: %w", err))
	}

	return &Consumer{
		conn:   conn,
		ch:     ch,
		queue:  q.Name,
		logger: log.WithComponent("rabbitmq_consumer"),
	}, nil
}

// Run feeds deliveries to h until ctx is done or the channel closes
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			handleDelivery(ctx, d, h, c.logger)
		}
	}
}

// handleDelivery acks a handled event, requeues one whose handler failed and
// drops a payload that cannot be decoded
func handleDelivery(ctx context.Context, d amqp.Delivery, h Handler, log *logger.Logger) {
	e, err := decode(d.Body)
	if err != nil {
		log.Warn("dropping undecodable event", "routing_key", d.RoutingKey, "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := h.Handle(ctx, e); err != nil {
		log.Error("failed to handle event, requeueing",
			"routing_key", d.RoutingKey,
			"event_id", e.ID,
			"booking_id", e.BookingID,
			"error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// Close closes the channel and connection
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
