package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ichi-go/pkg/logger"
)

// PublishOptions configures a single publish call made through Producer.
// Its shape matches the teacher's internal/infra/queue/rabbitmq.PublishOptions.
type PublishOptions struct {
	Headers   amqp.Table
	Delay     time.Duration
	Mandatory bool
}

// MessageProducer is a config-driven publisher over the exchanges listed
// in Config.Exchanges. Nothing in this module constructs one; the
// notifbroker producer path talks to Channel directly for per-call
// exchange declaration.
type MessageProducer interface {
	Publish(ctx context.Context, routingKey string, message interface{}, opts PublishOptions) error
	Close() error
}

type Producer struct {
	conn         *Connection
	exchangeName string
	session      *Channel
	mu           sync.Mutex
}

// NewProducer opens a channel, declares every exchange in cfg.Exchanges
// (including x-delayed-message support), and binds all future publishes to
// exchangeName.
func NewProducer(conn *Connection, cfg Config, exchangeName string) (MessageProducer, error) {
	session, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open producer channel: %w", err)
	}

	for _, ex := range cfg.Exchanges {
		args := amqp.Table{}
		if ex.Type == "x-delayed-message" {
			args["x-delayed-type"] = "direct"
		}
		if err := session.ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDelete, ex.Internal, false, args); err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to declare exchange %q: %w", ex.Name, err)
		}
	}

	return &Producer{conn: conn, exchangeName: exchangeName, session: session}, nil
}

func (p *Producer) Publish(ctx context.Context, routingKey string, message interface{}, opts PublishOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if opts.Headers == nil {
		opts.Headers = amqp.Table{}
	}
	if opts.Delay > 0 {
		opts.Headers["x-delay"] = int32(opts.Delay.Milliseconds())
	}
	opts.Headers["published_at"] = time.Now().Format(time.RFC3339)

	err = p.session.ch.PublishWithContext(ctx, p.exchangeName, routingKey, opts.Mandatory, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
		Headers:     opts.Headers,
	})
	if err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	logger.Debugf("broker: published to exchange=%s routing_key=%s bytes=%d", p.exchangeName, routingKey, len(body))
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Close()
}
