package rabbitmq

import (
	"fmt"

	"ichi-go/pkg/logger"
)

// SetupTopology declares all exchanges, queues, and bindings listed in
// Config (Exchanges and enabled Consumers) once at startup, when the
// broker connection is provided.
// Adapted from the teacher's internal/infra/queue/rabbitmq/topology.go.
func SetupTopology(conn *Connection, cfg Config) error {
	session, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open topology channel: %w", err)
	}
	defer session.Close()

	for _, ex := range cfg.Exchanges {
		if err := session.ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDelete, ex.Internal, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %q: %w", ex.Name, err)
		}
		logger.Infof("broker: declared exchange %q (type=%s)", ex.Name, ex.Type)
	}

	for _, consumer := range cfg.Consumers {
		if !consumer.Enabled {
			continue
		}

		q, err := session.ch.QueueDeclare(consumer.Queue.Name, consumer.Queue.Durable, consumer.Queue.AutoDelete, consumer.Queue.Exclusive, consumer.Queue.NoWait, nil)
		if err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", consumer.Queue.Name, err)
		}

		if len(consumer.RoutingKeys) == 0 {
			if exchangeType(cfg, consumer.ExchangeName) == "fanout" {
				if err := session.ch.QueueBind(q.Name, "", consumer.ExchangeName, false, nil); err != nil {
					return fmt.Errorf("failed to bind queue %q to fanout exchange %q: %w", q.Name, consumer.ExchangeName, err)
				}
			} else {
				logger.Warnf("broker: consumer %q has no routing keys — queue %q receives nothing from %q",
					consumer.Name, q.Name, consumer.ExchangeName)
			}
			continue
		}

		for _, key := range consumer.RoutingKeys {
			if err := session.ch.QueueBind(q.Name, key, consumer.ExchangeName, false, nil); err != nil {
				return fmt.Errorf("failed to bind queue %q to %q with key %q: %w", q.Name, consumer.ExchangeName, key, err)
			}
		}
	}

	return nil
}

func exchangeType(cfg Config, name string) string {
	for _, ex := range cfg.Exchanges {
		if ex.Name == name {
			return ex.Type
		}
	}
	return ""
}
