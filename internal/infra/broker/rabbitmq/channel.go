package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the canonical broker session: one AMQP channel plus the
// declare/bind/publish-confirm/consume operations the notification broker's
// producer and consumer paths need. It consolidates what used to be spread
// across internal/infra/{message,messaging,queue}/rabbitmq.
type Channel struct {
	ch         *amqp.Channel
	mu         sync.Mutex
	confirming bool
}

// DeclareExchange declares a durable, auto-delete exchange of the given
// kind (direct, fanout, headers, topic), matching spec.md's producer-side
// exchange declare options exactly.
func (c *Channel) DeclareExchange(name, kind string) error {
	return c.ch.ExchangeDeclare(name, kind, true, true, false, false, nil)
}

// DeclareQueue declares a durable queue with the caller-supplied name.
func (c *Channel) DeclareQueue(name string) (amqp.Queue, error) {
	return c.ch.QueueDeclare(name, true, false, false, false, nil)
}

// BindQueue binds queue to exchange with the given routing/binding key.
// Always performed — the canonical consumer never skips binding, resolving
// the discrepancy spec.md §9 calls out in the legacy sibling consumer.
func (c *Channel) BindQueue(queue, routingKey, exchange string) error {
	return c.ch.QueueBind(queue, routingKey, exchange, false, nil)
}

// PublishConfirm publishes a message and blocks until the broker confirms
// (or rejects) it, per spec.md §4.5 step 4. Confirm mode is enabled lazily,
// once, on first use of this channel.
func (c *Channel) PublishConfirm(ctx context.Context, exchange, routingKey string, body []byte, contentType string) error {
	c.mu.Lock()
	if !c.confirming {
		if err := c.ch.Confirm(false); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to enable publisher confirms: %w", err)
		}
		c.confirming = true
	}
	confirms := c.ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	c.mu.Unlock()

	err := c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType: contentType,
		Body:        body,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case confirm, ok := <-confirms:
		if !ok {
			return fmt.Errorf("publisher confirm channel closed before ack")
		}
		if !confirm.Ack {
			return fmt.Errorf("broker rejected publish (delivery tag %d)", confirm.DeliveryTag)
		}
		return nil
	}
}

// Consume starts streaming deliveries from queue. basic-ack is used per
// delivery by the caller (no auto-ack, no multi-ack, no nack), matching
// spec.md §6. The caller is responsible for stopping the stream by
// closing the channel.
func (c *Channel) Consume(queue, tag string) (<-chan amqp.Delivery, error) {
	deliveries, err := c.ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming from %q: %w", queue, err)
	}
	return deliveries, nil
}

func (c *Channel) Close() error {
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}
