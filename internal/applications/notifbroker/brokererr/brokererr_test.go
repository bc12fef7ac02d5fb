package brokererr

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ichi-go/internal/applications/notifbroker/errorsidecar"
)

// ============================================================================
// Mock
// ============================================================================

type mockSidecar struct {
	mock.Mock
}

func (m *mockSidecar) Report(ctx context.Context, e errorsidecar.ErrorRecord) {
	m.Called(ctx, e)
}

// ============================================================================
// Tests
// ============================================================================

func TestNew_MapsKindToHTTPCode(t *testing.T) {
	cases := []struct {
		kind Kind
		code int
	}{
		{KindTransport, http.StatusBadGateway},
		{KindCodec, http.StatusUnprocessableEntity},
		{KindCipher, http.StatusUnprocessableEntity},
		{KindProtocol, http.StatusConflict},
		{KindMailbox, http.StatusInternalServerError},
		{KindConfigMismatch, http.StatusForbidden},
	}

	for _, tc := range cases {
		be := New(context.Background(), tc.kind, "site", errors.New("boom"), nil)
		assert.Equal(t, tc.code, be.Kind.Code, "kind=%s", tc.kind)
		assert.Equal(t, tc.kind, be.Kind.Kind)
	}
}

func TestNew_ReportsToSidecarWhenPresent(t *testing.T) {
	sidecar := new(mockSidecar)
	sidecar.On("Report", mock.Anything, mock.MatchedBy(func(e errorsidecar.ErrorRecord) bool {
		return e.Kind == string(KindCipher) && e.Site == "producer" && e.Message == "boom" && e.Code == http.StatusUnprocessableEntity
	})).Return()

	New(context.Background(), KindCipher, "producer", errors.New("boom"), sidecar)
	sidecar.AssertExpectations(t)
}

func TestNew_NilSidecarIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		New(context.Background(), KindTransport, "consumer", errors.New("boom"), nil)
	})
}

func TestBrokerError_ErrorAndUnwrap(t *testing.T) {
	underlying := errors.New("root cause")
	be := New(context.Background(), KindProtocol, "site", underlying, nil)

	require.Error(t, be)
	assert.ErrorIs(t, be, underlying)
}
