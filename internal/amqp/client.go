package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends domain events and outgoing emails to a direct exchange.
type Publisher struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string
}

func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
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

	return &Publisher{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		queueName:    queueName,
	}, nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{RoutingWorkDayAssigned, RoutingWorkDayUnassigned, RoutingEmailSend} {
		if err := ch.QueueBind(queueName, key, exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue to %s: %w", key, err)
		}
	}

	return nil
}

// PublishWorkDay publishes a workday.assigned or workday.unassigned event.
func (p *Publisher) PublishWorkDay(ctx context.Context, accountID, date, clientID string) error {
	event := NewWorkDayEvent(accountID, date, clientID)
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.publish(ctx, event.RoutingKey(), body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published work day event",
		"routing_key", event.RoutingKey(),
		"date", date,
		"exchange", p.exchangeName)
	return nil
}

// SendEmail implements services.Mailer by queueing the message for the mail relay.
func (p *Publisher) SendEmail(ctx context.Context, to, subject, body, link string) error {
	msg := NewEmailMessage(to, subject, body, link)
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	if err := p.publish(ctx, RoutingEmailSend, payload); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Queued email", "subject", subject, "exchange", p.exchangeName)
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
