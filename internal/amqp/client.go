// Package amqp publishes and consumes expense events over RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
)

// Client wraps an AMQP connection with the exchange topology declared.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *log.Logger
}

// NewClient connects to the broker and declares the durable direct exchange.
func NewClient(url, exchange string, logger *log.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.WithComponent(log.ComponentAMQP),
	}, nil
}

// Close shuts down the channel and connection.
func (c *Client) Close() error {
	if err := c.channel.Close(); err != nil {
		c.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return c.conn.Close()
}

// PublishExpenseEvent publishes a persistent JSON event to the exchange.
func (c *Client) PublishExpenseEvent(ctx context.Context, event ExpenseEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		c.exchange,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.DebugContext(ctx, "event published",
		log.FieldExpenseID, event.ExpenseID,
		log.FieldOp, event.Op,
		log.FieldExchange, c.exchange,
	)
	return nil
}

// Handler processes one decoded expense event. A returned error requeues
// the delivery.
type Handler func(ctx context.Context, event ExpenseEvent) error

// Consume binds queue to the exchange and processes deliveries with handler
// until ctx is canceled. Malformed messages are rejected without requeue.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	q, err := c.channel.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := c.channel.QueueBind(q.Name, RoutingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	deliveries, err := c.channel.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", q.Name, err)
	}

	c.logger.Info("consuming", log.FieldQueue, q.Name, log.FieldExchange, c.exchange)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", q.Name)
			}
			var event ExpenseEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				c.logger.Warn("malformed event dropped", log.FieldError, err)
				d.Reject(false)
				continue
			}
			if err := handler(ctx, event); err != nil {
				c.logger.Warn("handler failed, requeueing",
					log.FieldExpenseID, event.ExpenseID,
					log.FieldError, err,
				)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}
