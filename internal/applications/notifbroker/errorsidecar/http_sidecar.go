package errorsidecar

import (
	"context"
	"time"

	"resty.dev/v3"

	"ichi-go/pkg/logger"
)

// HTTPSidecar forwards error records to an external collector over HTTP.
// Failures to forward are themselves only logged — the sidecar must never
// become a new source of terminal errors for the caller it is reporting
// for.
type HTTPSidecar struct {
	client       *resty.Client
	collectorURL string
}

func NewHTTPSidecar(collectorURL string) *HTTPSidecar {
	client := resty.New().SetTimeout(3 * time.Second)
	return &HTTPSidecar{client: client, collectorURL: collectorURL}
}

func (s *HTTPSidecar) Report(ctx context.Context, e ErrorRecord) {
	_, err := s.client.R().
		SetContext(ctx).
		SetBody(e).
		Post(s.collectorURL)
	if err != nil {
		logger.Warnf("errorsidecar: failed to forward error record to %q: %v", s.collectorURL, err)
	}
}

func (s *HTTPSidecar) Close() error {
	return s.client.Close()
}
