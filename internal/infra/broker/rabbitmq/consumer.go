package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ichi-go/pkg/logger"
)

// ConsumeFunc processes one delivery body. Return an error for transient
// failures (the delivery is nacked and requeued); return nil to ack,
// including for permanent failures such as malformed payloads that should
// not be retried.
type ConsumeFunc func(ctx context.Context, body []byte) error

// MessageConsumer consumes deliveries from a queue with a worker pool.
type MessageConsumer interface {
	Consume(ctx context.Context, handler ConsumeFunc) error
	Close() error
}

// Consumer is the canonical worker-pool consumer, consolidating what used
// to live separately in internal/infra/{message,messaging,queue}/rabbitmq.
type Consumer struct {
	conn *Connection
	cfg  ConsumerConfig
	ch   *amqp.Channel
	mu   sync.Mutex
}

func NewConsumer(conn *Connection, cfg ConsumerConfig) (MessageConsumer, error) {
	c := &Consumer{conn: conn, cfg: cfg}
	if err := c.setup(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Consumer) setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel for consumer %q: %w", c.cfg.Name, err)
	}
	ch := session.ch
	if err := ch.Qos(c.cfg.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS for consumer %q: %w", c.cfg.Name, err)
	}

	if _, err := ch.QueueDeclare(c.cfg.Queue.Name, c.cfg.Queue.Durable, c.cfg.Queue.AutoDelete, c.cfg.Queue.Exclusive, c.cfg.Queue.NoWait, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q for consumer %q: %w", c.cfg.Queue.Name, c.cfg.Name, err)
	}
	for _, key := range c.cfg.RoutingKeys {
		if err := ch.QueueBind(c.cfg.Queue.Name, key, c.cfg.ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %q to exchange %q: %w", c.cfg.Queue.Name, c.cfg.ExchangeName, err)
		}
	}

	c.ch = ch
	logger.Debugf("consumer %q ready: queue=%s exchange=%s workers=%d", c.cfg.Name, c.cfg.Queue.Name, c.cfg.ExchangeName, c.cfg.WorkerPoolSize)
	return nil
}

func (c *Consumer) Consume(ctx context.Context, handler ConsumeFunc) error {
	c.mu.Lock()
	deliveries, err := c.ch.Consume(c.cfg.Queue.Name, c.cfg.ConsumerTag, c.cfg.AutoAck, c.cfg.Exclusive, false, false, nil)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to start consuming from %q: %w", c.cfg.Queue.Name, err)
	}

	workers := c.cfg.WorkerPoolSize
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case delivery, ok := <-deliveries:
					if !ok {
						return
					}
					if err := handler(ctx, delivery.Body); err != nil {
						logger.Warnf("consumer %q worker #%d: handler error, nacking: %v", c.cfg.Name, workerID, err)
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							logger.Errorf("consumer %q worker #%d: nack failed: %v", c.cfg.Name, workerID, nackErr)
						}
						continue
					}
					if !c.cfg.AutoAck {
						if ackErr := delivery.Ack(false); ackErr != nil {
							logger.Errorf("consumer %q worker #%d: ack failed: %v", c.cfg.Name, workerID, ackErr)
						}
					}
				}
			}
		}(i)
	}

	wg.Wait()
	return nil
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}
