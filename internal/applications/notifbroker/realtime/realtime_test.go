package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceive_HappyPath(t *testing.T) {
	ch := New(1)
	ch.Send([]byte("hello"))

	select {
	case got := <-ch.Receive():
		assert.Equal(t, []byte("hello"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
	}
}

func TestSend_DropsWhenFull(t *testing.T) {
	ch := New(1)
	ch.Send([]byte("first"))
	ch.Send([]byte("second")) // must not block even though the buffer is full

	got := <-ch.Receive()
	assert.Equal(t, []byte("first"), got, "second send should have been dropped, not queued")

	select {
	case <-ch.Receive():
		t.Fatal("expected no further payloads")
	default:
	}
}

func TestNew_NegativeCapacityClampedToZero(t *testing.T) {
	ch := New(-5)
	require.NotNil(t, ch)

	// capacity 0: every send is immediately a drop unless a receiver is
	// actively waiting.
	done := make(chan struct{})
	go func() {
		ch.Send([]byte("x"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send on zero-capacity channel must not block")
	}
}
