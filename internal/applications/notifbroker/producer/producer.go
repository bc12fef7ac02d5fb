// Package producer implements the notification broker's producer path
// (C5): encode, optionally encrypt, best-effort cache the cipher config,
// declare the exchange, and publish with confirmation.
package producer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"ichi-go/internal/applications/notifbroker/cipher"
	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/internal/applications/notifbroker/keycache"
	brokerrabbitmq "ichi-go/internal/infra/broker/rabbitmq"
	"ichi-go/pkg/logger"
)

type Path struct {
	conn  *brokerrabbitmq.Connection
	cache *keycache.Store
}

func New(conn *brokerrabbitmq.Connection, cache *keycache.Store) *Path {
	return &Path{conn: conn, cache: cache}
}

// Produce implements spec.md §4.5 steps 1–4.
func (p *Path) Produce(ctx context.Context, cmd dto.ProduceNotif) error {
	plaintext, err := json.Marshal(cmd.NotifData)
	if err != nil {
		return fmt.Errorf("producer: encode notif data: %w", err)
	}

	body := plaintext
	contentType := "application/json"

	if cmd.EncryptionConfig != nil {
		var cellCfg dto.SecureCellConfig
		ciphertext, err := cipher.Encrypt(plaintext, cmd.EncryptionConfig.Secret, cmd.EncryptionConfig.Passphrase, &cellCfg)
		if err != nil {
			logger.Errorf("producer: encryption failed, falling back to plaintext: %v", err)
		} else {
			body = []byte(hex.EncodeToString(ciphertext))

			if cmd.EncryptionConfig.UniqueRedisID != "" && len(ciphertext) > 0 {
				if err := p.cache.PutEncryptionConfig(ctx, cmd.EncryptionConfig.UniqueRedisID, cellCfg); err != nil {
					logger.Warnf("producer: failed to cache encryption config for %q: %v", cmd.EncryptionConfig.UniqueRedisID, err)
				}
			}
		}
	}

	session, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("producer: open channel: %w", err)
	}
	defer session.Close()

	if err := session.DeclareExchange(cmd.ExchangeName, cmd.ExchangeType); err != nil {
		return fmt.Errorf("producer: declare exchange %q: %w", cmd.ExchangeName, err)
	}

	if err := session.PublishConfirm(ctx, cmd.ExchangeName, cmd.RoutingKey, body, contentType); err != nil {
		return fmt.Errorf("producer: publish to %q/%q: %w", cmd.ExchangeName, cmd.RoutingKey, err)
	}

	return nil
}
