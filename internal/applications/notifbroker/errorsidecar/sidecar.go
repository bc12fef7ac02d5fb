// Package errorsidecar implements the optional error-forwarding sidecar
// named in spec.md §7: every error response stamped by brokererr carries a
// handle to one of these. Grounded conceptually on the original Rust
// ZerLogProducerActor, which every terminal error path there routes
// through.
package errorsidecar

import (
	"context"
	"time"

	"ichi-go/pkg/logger"
)

// ErrorRecord is the structured shape forwarded to a sidecar.
type ErrorRecord struct {
	Kind      string    `json:"kind"`
	Site      string    `json:"site"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Sidecar receives error records. Report must not block the caller for
// long; implementations that forward over the network should apply their
// own short timeout.
type Sidecar interface {
	Report(ctx context.Context, e ErrorRecord)
}

// LogSidecar is the default, always-available sidecar: it just logs.
type LogSidecar struct{}

func NewLogSidecar() *LogSidecar { return &LogSidecar{} }

func (s *LogSidecar) Report(_ context.Context, e ErrorRecord) {
	logger.Errorf("notifbroker: [%s] %s: %s (code=%d)", e.Kind, e.Site, e.Message, e.Code)
}
