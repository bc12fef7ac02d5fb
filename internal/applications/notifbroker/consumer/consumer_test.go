package consumer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ichi-go/internal/applications/notifbroker/cipher"
	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/internal/applications/notifbroker/keycache"
	"ichi-go/internal/applications/notifbroker/realtime"
)

// ============================================================================
// Mocks and helpers
// ============================================================================

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) DispatchStore(ctx context.Context, evt dto.StoreNotifEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func newTestPath(t *testing.T, dispatch StoreDispatcher) (*Path, *keycache.Store) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := keycache.New(client)
	rt := realtime.New(4)
	return New(nil, cache, rt, dispatch), cache
}

// ============================================================================
// processDelivery — plaintext path
// ============================================================================

func TestProcessDelivery_PlaintextNoDecryption(t *testing.T) {
	p, _ := newTestPath(t, nil)

	notif := dto.NotifData{ID: "n-1", ReceiverInfo: "user-1", ActionData: json.RawMessage(`{}`), ActionType: dto.ActionEventCreated}
	body, err := json.Marshal(notif)
	require.NoError(t, err)

	got, err := p.processDelivery(context.Background(), dto.ConsumeNotif{}, body, dto.SecureCellConfig{})
	require.NoError(t, err)
	assert.Equal(t, notif, got)
}

func TestProcessDelivery_InvalidJSON(t *testing.T) {
	p, _ := newTestPath(t, nil)

	_, err := p.processDelivery(context.Background(), dto.ConsumeNotif{}, []byte("not-json"), dto.SecureCellConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode notif data")
}

// ============================================================================
// processDelivery — decryption path
// ============================================================================

func TestProcessDelivery_DecryptsWhenCachedCellPresent(t *testing.T) {
	p, _ := newTestPath(t, nil)

	secret := []byte("secret")
	passphrase := []byte("pass")
	notif := dto.NotifData{ID: "n-2", ReceiverInfo: "user-2", ActionData: json.RawMessage(`{}`), ActionType: dto.ActionEventExpired}
	plaintext, err := json.Marshal(notif)
	require.NoError(t, err)

	var cell dto.SecureCellConfig
	ciphertext, err := cipher.Encrypt(plaintext, secret, passphrase, &cell)
	require.NoError(t, err)

	body := []byte(hex.EncodeToString(ciphertext))

	cmd := dto.ConsumeNotif{DecryptionConfig: &dto.CryptoConfig{Secret: secret, Passphrase: passphrase}}
	got, err := p.processDelivery(context.Background(), cmd, body, cell)
	require.NoError(t, err)
	assert.Equal(t, notif, got)
}

func TestProcessDelivery_RejectsTamperedCiphertext(t *testing.T) {
	p, _ := newTestPath(t, nil)

	secret := []byte("secret")
	passphrase := []byte("pass")
	notif := dto.NotifData{ID: "n-3"}
	plaintext, err := json.Marshal(notif)
	require.NoError(t, err)

	var cell dto.SecureCellConfig
	_, err = cipher.Encrypt(plaintext, secret, passphrase, &cell)
	require.NoError(t, err)

	tamperedBody := []byte(hex.EncodeToString([]byte("not-the-real-ciphertext")))

	cmd := dto.ConsumeNotif{DecryptionConfig: &dto.CryptoConfig{Secret: secret, Passphrase: passphrase}}
	_, err = p.processDelivery(context.Background(), cmd, tamperedBody, cell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol tamper")
}

func TestProcessDelivery_InvalidHexBody(t *testing.T) {
	p, _ := newTestPath(t, nil)

	cmd := dto.ConsumeNotif{DecryptionConfig: &dto.CryptoConfig{Secret: []byte("a"), Passphrase: []byte("b")}}
	cell := dto.SecureCellConfig{Data: []byte("nonempty")}

	_, err := p.processDelivery(context.Background(), cmd, []byte("zz-not-hex"), cell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid hex")
}

// ============================================================================
// preloadEncryptionConfig
// ============================================================================

func TestPreloadEncryptionConfig_MatchSucceeds(t *testing.T) {
	p, cache := newTestPath(t, nil)
	ctx := context.Background()

	secret := []byte("secret")
	passphrase := []byte("pass")
	cell := dto.SecureCellConfig{
		SecretKeyHex:  hex.EncodeToString(secret),
		PassphraseHex: hex.EncodeToString(passphrase),
		Data:          []byte("ciphertext"),
	}
	require.NoError(t, cache.PutEncryptionConfig(ctx, "redis-1", cell))

	got, err := p.preloadEncryptionConfig(ctx, &dto.CryptoConfig{Secret: secret, Passphrase: passphrase, UniqueRedisID: "redis-1"})
	require.NoError(t, err)
	assert.Equal(t, cell, got)
}

func TestPreloadEncryptionConfig_MismatchFails(t *testing.T) {
	p, cache := newTestPath(t, nil)
	ctx := context.Background()

	cell := dto.SecureCellConfig{
		SecretKeyHex:  hex.EncodeToString([]byte("other-secret")),
		PassphraseHex: hex.EncodeToString([]byte("other-pass")),
	}
	require.NoError(t, cache.PutEncryptionConfig(ctx, "redis-2", cell))

	_, err := p.preloadEncryptionConfig(ctx, &dto.CryptoConfig{Secret: []byte("secret"), Passphrase: []byte("pass"), UniqueRedisID: "redis-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestPreloadEncryptionConfig_MissTreatedAsMismatchForPopulatedKeys(t *testing.T) {
	p, _ := newTestPath(t, nil)

	_, err := p.preloadEncryptionConfig(context.Background(), &dto.CryptoConfig{Secret: []byte("secret"), Passphrase: []byte("pass"), UniqueRedisID: "nonexistent"})
	require.Error(t, err)
}

// ============================================================================
// fanOutAndPersist
// ============================================================================

func TestFanOutAndPersist_SendsToRealtimeAndCaches(t *testing.T) {
	p, cache := newTestPath(t, nil)
	ctx := context.Background()

	notif := dto.NotifData{ID: "n-4", ReceiverInfo: "user-4"}
	cmd := dto.ConsumeNotif{RedisCacheExp: 60}

	p.fanOutAndPersist(ctx, cmd, notif)

	select {
	case payload := <-p.realtime.Receive():
		var got dto.NotifData
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, notif, got)
	default:
		t.Fatal("expected a realtime fan-out payload")
	}

	found, err := cache.Exists(ctx, "notif_owner:user-4")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFanOutAndPersist_SkipsCacheWhenExpIsZero(t *testing.T) {
	p, cache := newTestPath(t, nil)
	ctx := context.Background()

	notif := dto.NotifData{ID: "n-5", ReceiverInfo: "user-5"}
	p.fanOutAndPersist(ctx, dto.ConsumeNotif{RedisCacheExp: 0}, notif)

	found, err := cache.Exists(ctx, "notif_owner:user-5")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFanOutAndPersist_DispatchesStoreWhenRequested(t *testing.T) {
	dispatcher := new(mockDispatcher)
	p, _ := newTestPath(t, dispatcher)

	notif := dto.NotifData{ID: "n-6", ReceiverInfo: "user-6"}
	dispatcher.On("DispatchStore", mock.Anything, dto.StoreNotifEvent{Message: notif, LocalSpawn: true}).Return(nil)

	p.fanOutAndPersist(context.Background(), dto.ConsumeNotif{StoreInDB: true}, notif)
	dispatcher.AssertExpectations(t)
}

func TestFanOutAndPersist_SkipsDispatchWhenStoreInDBFalse(t *testing.T) {
	dispatcher := new(mockDispatcher)
	p, _ := newTestPath(t, dispatcher)

	notif := dto.NotifData{ID: "n-7"}
	p.fanOutAndPersist(context.Background(), dto.ConsumeNotif{StoreInDB: false}, notif)
	dispatcher.AssertNotCalled(t, "DispatchStore", mock.Anything, mock.Anything)
}

func TestFanOutAndPersist_NilDispatcherIsNoOp(t *testing.T) {
	p, _ := newTestPath(t, nil)
	assert.NotPanics(t, func() {
		p.fanOutAndPersist(context.Background(), dto.ConsumeNotif{StoreInDB: true}, dto.NotifData{ID: "n-8"})
	})
}
