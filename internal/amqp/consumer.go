package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"
)

// ErrChannelClosed is returned by Consume when the broker closes the delivery channel.
var ErrChannelClosed = errors.New("message channel closed")

// Handlers receive decoded messages. A nil handler acks and drops its messages.
type Handlers struct {
	Email   func(ctx context.Context, msg *EmailMessage) error
	WorkDay func(ctx context.Context, event *WorkDayEvent) error
}

type consumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

// Consumer reads the events queue that Publisher feeds.
type Consumer struct {
	conn      *amqp091.Connection
	channel   consumeChannel
	queueName string
}

func NewConsumer(url, exchangeName, queueName string) (*Consumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchangeName, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queueName: queueName}, nil
}

// Consume dispatches deliveries by routing key until ctx is done.
// Malformed messages are dropped; handler failures are requeued.
func (c *Consumer) Consume(ctx context.Context, h Handlers) error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)
	return serve(ctx, msgs, h)
}

func serve(ctx context.Context, msgs <-chan amqp091.Delivery, h Handlers) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			handleDelivery(ctx, delivery, h)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, h Handlers) {
	err := dispatch(ctx, d.RoutingKey, d.Body, h)
	var decodeErr *decodeError
	switch {
	case err == nil:
		d.Ack(false)
	case errors.As(err, &decodeErr):
		slog.ErrorContext(ctx, "Failed to unmarshal message", "routing_key", d.RoutingKey, "error", err)
		d.Nack(false, false) // reject and don't requeue
	default:
		slog.ErrorContext(ctx, "Failed to handle message", "routing_key", d.RoutingKey, "error", err)
		d.Nack(false, true) // reject and requeue
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode message: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func dispatch(ctx context.Context, routingKey string, body []byte, h Handlers) error {
	switch routingKey {
	case RoutingEmailSend:
		msg, err := EmailMessageFromJSON(body)
		if err != nil {
			return &decodeError{err}
		}
		if h.Email == nil {
			return nil
		}
		return h.Email(ctx, msg)
	case RoutingWorkDayAssigned, RoutingWorkDayUnassigned:
		event, err := WorkDayEventFromJSON(body)
		if err != nil {
			return &decodeError{err}
		}
		if h.WorkDay == nil {
			return nil
		}
		return h.WorkDay(ctx, event)
	default:
		slog.WarnContext(ctx, "Ignoring message with unknown routing key", "routing_key", routingKey)
		return nil
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
