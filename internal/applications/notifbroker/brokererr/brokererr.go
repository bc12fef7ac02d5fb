// Package brokererr provides an error-response constructor, New, which
// stamps a numeric code, a UTF-8 message, a (kind, site) tagged pair, and
// forwards to an optional error-reporting sidecar. Built on samber/oops,
// matching the teacher's pkg/errors convention. The producer, consumer and
// actor paths of the notification broker do not call New: they return
// and log plain wrapped errors, which are not reported to a sidecar.
package brokererr

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/oops"

	"ichi-go/internal/applications/notifbroker/errorsidecar"
)

// Kind is the error taxonomy from spec.md §7.
type Kind string

const (
	KindTransport      Kind = "TransportError"
	KindCodec          Kind = "CodecError"
	KindCipher         Kind = "CipherError"
	KindProtocol       Kind = "ProtocolError"
	KindMailbox        Kind = "MailboxError"
	KindConfigMismatch Kind = "ConfigMismatch"
)

// BrokerError is the error value New returns.
type BrokerError struct {
	Kind HTTPKind
	Site string
	Err  error
}

// HTTPKind pairs a Kind with the HTTP status a caller-facing surface
// should map it to.
type HTTPKind struct {
	Kind Kind
	Code int
}

func (e *BrokerError) Error() string {
	return e.Err.Error()
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

var codeByKind = map[Kind]int{
	KindTransport:      http.StatusBadGateway,
	KindCodec:          http.StatusUnprocessableEntity,
	KindCipher:         http.StatusUnprocessableEntity,
	KindProtocol:       http.StatusConflict,
	KindMailbox:        http.StatusInternalServerError,
	KindConfigMismatch: http.StatusForbidden,
}

// New stamps err with kind/site, routes it through the oops builder the
// teacher's pkg/errors package uses, and — when sidecar is non-nil —
// reports it before returning.
func New(ctx context.Context, kind Kind, site string, err error, sidecar errorsidecar.Sidecar) *BrokerError {
	code := codeByKind[kind]

	wrapped := oops.Code(string(kind)).In(site).Wrap(err)

	be := &BrokerError{
		Kind: HTTPKind{Kind: kind, Code: code},
		Site: site,
		Err:  wrapped,
	}

	if sidecar != nil {
		sidecar.Report(ctx, errorsidecar.ErrorRecord{
			Kind:      string(kind),
			Site:      site,
			Message:   err.Error(),
			Code:      code,
			Timestamp: time.Now(),
		})
	}

	return be
}
