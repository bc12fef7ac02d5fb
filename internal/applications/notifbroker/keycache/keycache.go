// Package keycache implements the notification broker's TTL'd key/value
// operations: encryption-config caching and the per-recipient notification
// list with append-or-initialize semantics. It talks to Redis directly
// rather than through the teacher's generic cache.Cache wrapper, because
// the spec requires "overwrite without refreshing TTL" (go-redis's
// KeepTTL) and "create with TTL" as two distinct primitives that
// cache.Cache's Options{Expiration} does not separate.
package keycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/pkg/logger"
)

const encryptionConfigTTL = 300 * time.Second

// Store is the key-cache layer. It is safe for concurrent use; no locking
// is held across network calls, and read-modify-write races on the
// recipient list are tolerated per spec (at-least-once model).
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("keycache: exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Get returns (value, false, nil) on a cache miss, matching the spec's
// "get(k) → string | miss" contract without an error on miss.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keycache: get %q: %w", key, err)
	}
	return v, true, nil
}

// Set unconditionally overwrites key, keeping whatever TTL (if any) is
// already set on it.
func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.client.SetArgs(ctx, key, value, redis.SetArgs{KeepTTL: true}).Err()
	if err != nil {
		return fmt.Errorf("keycache: set %q: %w", key, err)
	}
	return nil
}

// SetWithTTL creates key with the given expiry, discarding any prior TTL.
func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("keycache: set_with_ttl %q: %w", key, err)
	}
	return nil
}

func encryptionConfigKey(uniqueRedisID string) string {
	return fmt.Sprintf("notif_encryption_config_for_%s", uniqueRedisID)
}

func recipientListKey(receiverInfo string) string {
	return fmt.Sprintf("notif_owner:%s", receiverInfo)
}

// PutEncryptionConfig writes cfg under the encryption-config key with the
// fixed 300s TTL. Best-effort: callers log and continue on error per the
// producer path's contract.
func (s *Store) PutEncryptionConfig(ctx context.Context, uniqueRedisID string, cfg dto.SecureCellConfig) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("keycache: marshal secure cell config: %w", err)
	}
	return s.SetWithTTL(ctx, encryptionConfigKey(uniqueRedisID), string(b), encryptionConfigTTL)
}

// GetEncryptionConfig returns the cached SecureCellConfig for uniqueRedisID,
// or a zero-value config (found=false) on a cache miss — the consumer path
// treats a miss as "use defaults (empty data)".
func (s *Store) GetEncryptionConfig(ctx context.Context, uniqueRedisID string) (dto.SecureCellConfig, bool, error) {
	raw, found, err := s.Get(ctx, encryptionConfigKey(uniqueRedisID))
	if err != nil || !found {
		return dto.SecureCellConfig{}, false, err
	}
	var cfg dto.SecureCellConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return dto.SecureCellConfig{}, false, fmt.Errorf("keycache: decode secure cell config: %w", err)
	}
	return cfg, true, nil
}

// AppendNotif implements the append-or-init semantics for the per-receiver
// notification list: if the key exists, decode, append, overwrite without
// refreshing TTL; otherwise create the key with a one-element list and the
// given TTL.
func (s *Store) AppendNotif(ctx context.Context, receiverInfo string, n dto.NotifData, ttl time.Duration) error {
	key := recipientListKey(receiverInfo)

	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if !found {
		b, err := json.Marshal([]dto.NotifData{n})
		if err != nil {
			return fmt.Errorf("keycache: marshal notif list: %w", err)
		}
		return s.SetWithTTL(ctx, key, string(b), ttl)
	}

	var list []dto.NotifData
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Warnf("keycache: corrupt notif list at %q, reinitializing: %v", key, err)
		list = nil
	}
	list = append(list, n)

	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("keycache: marshal notif list: %w", err)
	}
	return s.Set(ctx, key, string(b))
}
