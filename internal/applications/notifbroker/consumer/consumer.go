// Package consumer implements the notification broker's consumer path
// (C6): broker connection → channel → queue declare/bind → encryption
// config preload → per-delivery decrypt/decode/fan-out/cache/persist.
package consumer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"ichi-go/internal/applications/notifbroker/cipher"
	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/internal/applications/notifbroker/keycache"
	"ichi-go/internal/applications/notifbroker/realtime"
	brokerrabbitmq "ichi-go/internal/infra/broker/rabbitmq"
	"ichi-go/pkg/logger"
)

// state names the consumer's position in the state machine from
// spec.md §4.4. Run records it on the Path as it goes; nothing branches
// on it and no log line reports it. The actual control flow is plain
// sequential Go, matching how a single-threaded cooperative task
// naturally expresses this diagram.
type state string

const (
	stateIdle       state = "idle"
	stateConnOk     state = "conn_ok"
	stateChanOk     state = "chan_ok"
	stateQueueOk    state = "queue_ok"
	stateStreaming  state = "streaming"
	stateTerminated state = "terminated"
)

// StoreDispatcher is how the consumer hands a decoded delivery to the
// external relational-store mutator. In this module the broker actor
// fulfills it (spec.md §4.4 step 6: "dispatch a StoreNotifEvent{...}
// command"); a nil dispatcher makes store_in_db a no-op.
type StoreDispatcher interface {
	DispatchStore(ctx context.Context, evt dto.StoreNotifEvent) error
}

// Path runs one ConsumeNotif command to completion (or termination).
type Path struct {
	conn     *brokerrabbitmq.Connection
	cache    *keycache.Store
	realtime *realtime.Channel
	dispatch StoreDispatcher
	state    state
}

func New(conn *brokerrabbitmq.Connection, cache *keycache.Store, rt *realtime.Channel, dispatch StoreDispatcher) *Path {
	return &Path{conn: conn, cache: cache, realtime: rt, dispatch: dispatch, state: stateIdle}
}

// Run drives the state machine in spec.md §4.4 to completion. It returns
// only when the stream terminates (ctx cancellation, decode/decrypt
// failure, config mismatch, or transport error) — callers run it on its
// own goroutine.
func (p *Path) Run(ctx context.Context, cmd dto.ConsumeNotif) error {
	session, err := p.conn.Channel()
	if err != nil {
		p.state = stateTerminated
		logger.Errorf("consumer[%s]: failed to acquire connection: %v", cmd.Tag, err)
		return fmt.Errorf("consumer: acquire connection: %w", err)
	}
	p.state = stateConnOk
	defer session.Close()

	p.state = stateChanOk

	if _, err := session.DeclareQueue(cmd.Queue); err != nil {
		p.state = stateTerminated
		logger.Errorf("consumer[%s]: failed to declare queue %q: %v", cmd.Tag, cmd.Queue, err)
		return fmt.Errorf("consumer: declare queue: %w", err)
	}
	p.state = stateQueueOk

	// Binding runs unconditionally on this path, never skipped when the
	// exchange name is empty (see the legacy sibling consumer's behavior).
	if err := session.BindQueue(cmd.Queue, cmd.RoutingKey, cmd.ExchangeName); err != nil {
		p.state = stateTerminated
		logger.Errorf("consumer[%s]: failed to bind queue %q: %v", cmd.Tag, cmd.Queue, err)
		return fmt.Errorf("consumer: bind queue: %w", err)
	}

	var cachedCell dto.SecureCellConfig
	if cmd.DecryptionConfig != nil {
		cachedCell, err = p.preloadEncryptionConfig(ctx, cmd.DecryptionConfig)
		if err != nil {
			p.state = stateTerminated
			logger.Errorf("consumer[%s]: encryption config mismatch, terminating before consuming: %v", cmd.Tag, err)
			return err
		}
	}

	deliveries, err := session.Consume(cmd.Queue, cmd.Tag)
	if err != nil {
		p.state = stateTerminated
		logger.Errorf("consumer[%s]: failed to start consuming: %v", cmd.Tag, err)
		return fmt.Errorf("consumer: start consuming: %w", err)
	}
	p.state = stateStreaming

	for {
		select {
		case <-ctx.Done():
			p.state = stateTerminated
			return ctx.Err()

		case delivery, ok := <-deliveries:
			if !ok {
				p.state = stateTerminated
				return nil
			}

			if err := delivery.Ack(false); err != nil {
				logger.Errorf("consumer[%s]: ack failed: %v", cmd.Tag, err)
				p.state = stateTerminated
				return fmt.Errorf("consumer: ack: %w", err)
			}

			notif, err := p.processDelivery(ctx, cmd, delivery.Body, cachedCell)
			if err != nil {
				p.state = stateTerminated
				logger.Errorf("consumer[%s]: terminating stream: %v", cmd.Tag, err)
				return err
			}

			p.fanOutAndPersist(ctx, cmd, notif)
		}
	}
}

// preloadEncryptionConfig implements spec.md §4.4's "Encryption config
// preload" step. A cache miss is treated as "use defaults (empty data)",
// which can only ever match a caller whose secret/passphrase both happen
// to hex-encode to the empty cached strings — in practice any populated
// config mismatches a miss and aborts, matching the spec's safety intent.
func (p *Path) preloadEncryptionConfig(ctx context.Context, cfg *dto.CryptoConfig) (dto.SecureCellConfig, error) {
	cell, _, err := p.cache.GetEncryptionConfig(ctx, cfg.UniqueRedisID)
	if err != nil {
		return dto.SecureCellConfig{}, fmt.Errorf("consumer: load encryption config: %w", err)
	}

	secretHex := hex.EncodeToString(cfg.Secret)
	passphraseHex := hex.EncodeToString(cfg.Passphrase)

	if cell.SecretKeyHex != secretHex || cell.PassphraseHex != passphraseHex {
		return dto.SecureCellConfig{}, fmt.Errorf("consumer: cached encryption config does not match caller's keys")
	}

	return cell, nil
}

// processDelivery implements spec.md §4.4's per-delivery pipeline steps
// 1–3 (decrypt branch / plaintext branch / decode). It returns the decoded
// NotifData or a terminal error.
func (p *Path) processDelivery(_ context.Context, cmd dto.ConsumeNotif, body []byte, cachedCell dto.SecureCellConfig) (dto.NotifData, error) {
	plaintext := body

	if cmd.DecryptionConfig != nil && len(cachedCell.Data) > 0 {
		wireCiphertext, err := hex.DecodeString(string(body))
		if err != nil {
			return dto.NotifData{}, fmt.Errorf("consumer: delivery body is not valid hex: %w", err)
		}

		if !bytes.Equal(wireCiphertext, cachedCell.Data) {
			return dto.NotifData{}, fmt.Errorf("consumer: delivered ciphertext does not match cached ciphertext (protocol tamper)")
		}

		cell := cachedCell
		cell.Data = wireCiphertext
		decoded, err := cipher.Decrypt(cmd.DecryptionConfig.Secret, cmd.DecryptionConfig.Passphrase, &cell)
		if err != nil {
			return dto.NotifData{}, fmt.Errorf("consumer: decrypt failed: %w", err)
		}
		plaintext = decoded
	}

	var notif dto.NotifData
	if err := json.Unmarshal(plaintext, &notif); err != nil {
		return dto.NotifData{}, fmt.Errorf("consumer: decode notif data: %w", err)
	}

	return notif, nil
}

// fanOutAndPersist implements spec.md §4.4 steps 4–6, in the fixed order
// realtime → cache → durable. None of these failures terminate the
// stream; cache and durable writes are best-effort per the spec.
func (p *Path) fanOutAndPersist(ctx context.Context, cmd dto.ConsumeNotif, notif dto.NotifData) {
	encoded, err := json.Marshal(notif)
	if err != nil {
		logger.Errorf("consumer[%s]: failed to re-encode notif for fan-out: %v", cmd.Tag, err)
		return
	}
	p.realtime.Send(encoded)

	if cmd.RedisCacheExp != 0 {
		ttl := time.Duration(cmd.RedisCacheExp) * time.Second
		if err := p.cache.AppendNotif(ctx, notif.ReceiverInfo, notif, ttl); err != nil {
			logger.Warnf("consumer[%s]: cache write-through failed for receiver %q: %v", cmd.Tag, notif.ReceiverInfo, err)
		}
	}

	if cmd.StoreInDB && p.dispatch != nil {
		evt := dto.StoreNotifEvent{Message: notif, LocalSpawn: true}
		if err := p.dispatch.DispatchStore(ctx, evt); err != nil {
			logger.Warnf("consumer[%s]: durable write dispatch failed (best-effort): %v", cmd.Tag, err)
		}
	}
}
