// Package realtime owns the bounded fan-out channel that feeds the
// websocket delivery handler external to the broker core. The channel is
// created once by the broker actor and cloned (the same channel value)
// into every consumer goroutine.
package realtime

import "ichi-go/pkg/logger"

// Channel is a multi-producer/single-consumer bounded pipe: many
// consumer-path goroutines send, one websocket handler external to this
// module receives.
type Channel struct {
	ch chan []byte
}

// New creates a fan-out channel with the given capacity; a negative
// capacity is treated as 0. With capacity 0 a send never blocks: it is
// delivered only if a receiver is already waiting, and is otherwise a
// log-and-drop.
func New(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{ch: make(chan []byte, capacity)}
}

// Receive returns the read side, for the external websocket handler to
// range over.
func (c *Channel) Receive() <-chan []byte {
	return c.ch
}

// Send pushes payload onto the channel without blocking. A full channel
// causes a log-and-drop; it never terminates the calling consumer.
func (c *Channel) Send(payload []byte) {
	select {
	case c.ch <- payload:
	default:
		logger.Warnf("realtime: fan-out channel full, dropping payload (%d bytes)", len(payload))
	}
}
