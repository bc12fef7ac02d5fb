package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ichi-go/internal/applications/notifbroker/dto"
)

// ============================================================================
// Mock reader
// ============================================================================

type mockReader struct {
	mock.Mock
}

func (m *mockReader) ListByReceiver(ctx context.Context, receiver string, limit, offset int) ([]dto.NotifData, error) {
	args := m.Called(ctx, receiver, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NotifData), args.Error(1)
}

func newTestController(reader *mockReader) (*echo.Echo, *Controller) {
	e := echo.New()
	c := New(nil, reader, govalidator.New())
	return e, c
}

// ============================================================================
// RegisterNotif — validation-failure paths (do not touch the actor)
// ============================================================================

func TestRegisterNotif_InvalidJSONBody(t *testing.T) {
	e, c := newTestController(nil)
	req := httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewBufferString("not-json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)

	require.NoError(t, c.RegisterNotif(eCtx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterNotif_MissingRequiredFields(t *testing.T) {
	e, c := newTestController(nil)
	body, err := json.Marshal(map[string]string{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewBuffer(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)

	require.NoError(t, c.RegisterNotif(eCtx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterNotif_InvalidExchangeType(t *testing.T) {
	e, c := newTestController(nil)
	payload := RegisterNotifRequest{
		ReceiverInfo: "user-1",
		ActionData:   []byte(`{"a":1}`),
		ActionerInfo: "system",
		ExchangeName: "notif.exchange",
		ExchangeType: "not-a-real-type",
		RoutingKey:   "rk",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewBuffer(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)

	require.NoError(t, c.RegisterNotif(eCtx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// toProduceNotif / toNotifResponse mapping
// ============================================================================

func TestToProduceNotif_DefaultsActionTypeWhenEmpty(t *testing.T) {
	req := RegisterNotifRequest{
		ReceiverInfo: "user-1",
		ActionData:   []byte(`{"a":1}`),
		ActionerInfo: "system",
		ExchangeName: "ex",
		ExchangeType: "fanout",
		RoutingKey:   "rk",
	}

	cmd := req.toProduceNotif()
	assert.Equal(t, dto.ActionProductPurchased, cmd.NotifData.ActionType)
	assert.True(t, cmd.LocalSpawn)
	assert.Nil(t, cmd.EncryptionConfig)
}

func TestToProduceNotif_PreservesExplicitActionType(t *testing.T) {
	req := RegisterNotifRequest{ActionType: "EventLocked"}
	cmd := req.toProduceNotif()
	assert.Equal(t, dto.ActionEventLocked, cmd.NotifData.ActionType)
}

func TestToProduceNotif_SetsEncryptionConfigOnlyWhenBothSecretAndPassphrasePresent(t *testing.T) {
	withBoth := RegisterNotifRequest{Secret: "s", Passphrase: "p", UniqueRedisID: "id-1"}
	cmd := withBoth.toProduceNotif()
	require.NotNil(t, cmd.EncryptionConfig)
	assert.Equal(t, []byte("s"), cmd.EncryptionConfig.Secret)
	assert.Equal(t, []byte("p"), cmd.EncryptionConfig.Passphrase)
	assert.Equal(t, "id-1", cmd.EncryptionConfig.UniqueRedisID)

	onlySecret := RegisterNotifRequest{Secret: "s"}
	assert.Nil(t, onlySecret.toProduceNotif().EncryptionConfig)

	onlyPassphrase := RegisterNotifRequest{Passphrase: "p"}
	assert.Nil(t, onlyPassphrase.toProduceNotif().EncryptionConfig)
}

func TestToNotifResponse_MapsAllFields(t *testing.T) {
	n := dto.NotifData{
		ID:           "n-1",
		ReceiverInfo: "user-1",
		ActionerInfo: "system",
		ActionType:   dto.ActionEventExpired,
		FiredAt:      99,
		IsSeen:       true,
	}
	got := toNotifResponse(n)
	assert.Equal(t, NotifResponse{
		ID:           "n-1",
		ReceiverInfo: "user-1",
		ActionerInfo: "system",
		ActionType:   string(dto.ActionEventExpired),
		FiredAt:      99,
		IsSeen:       true,
	}, got)
}

// ============================================================================
// GetNotif / GetSingleNotif / parsePage
// ============================================================================

func TestGetNotif_HappyPath(t *testing.T) {
	reader := new(mockReader)
	e, c := newTestController(reader)

	want := []dto.NotifData{{ID: "n-1", ReceiverInfo: "user-1"}}
	reader.On("ListByReceiver", mock.Anything, "user-1", 50, 0).Return(want, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/user-1", nil)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)
	eCtx.SetParamNames("receiver")
	eCtx.SetParamValues("user-1")

	require.NoError(t, c.GetNotif(eCtx))
	assert.Equal(t, http.StatusOK, rec.Code)
	reader.AssertExpectations(t)
}

func TestGetNotif_CustomPagination(t *testing.T) {
	reader := new(mockReader)
	e, c := newTestController(reader)

	reader.On("ListByReceiver", mock.Anything, "user-2", 10, 5).Return([]dto.NotifData{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/user-2?limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)
	eCtx.SetParamNames("receiver")
	eCtx.SetParamValues("user-2")

	require.NoError(t, c.GetNotif(eCtx))
	reader.AssertExpectations(t)
}

func TestGetNotif_ReaderError(t *testing.T) {
	reader := new(mockReader)
	e, c := newTestController(reader)

	reader.On("ListByReceiver", mock.Anything, "user-3", 50, 0).Return(nil, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/notifications/user-3", nil)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)
	eCtx.SetParamNames("receiver")
	eCtx.SetParamValues("user-3")

	require.NoError(t, c.GetNotif(eCtx))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSingleNotif_Found(t *testing.T) {
	reader := new(mockReader)
	e, c := newTestController(reader)

	want := []dto.NotifData{{ID: "n-1"}, {ID: "n-2"}}
	reader.On("ListByReceiver", mock.Anything, "user-4", 1000, 0).Return(want, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/user-4/n-2", nil)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)
	eCtx.SetParamNames("receiver", "id")
	eCtx.SetParamValues("user-4", "n-2")

	require.NoError(t, c.GetSingleNotif(eCtx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSingleNotif_NotFound(t *testing.T) {
	reader := new(mockReader)
	e, c := newTestController(reader)

	reader.On("ListByReceiver", mock.Anything, "user-5", 1000, 0).Return([]dto.NotifData{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/user-5/missing", nil)
	rec := httptest.NewRecorder()
	eCtx := e.NewContext(req, rec)
	eCtx.SetParamNames("receiver", "id")
	eCtx.SetParamValues("user-5", "missing")

	require.NoError(t, c.GetSingleNotif(eCtx))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParsePage_DefaultsAndInvalidValuesIgnored(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications/x?limit=abc&offset=-1", nil)
	eCtx := e.NewContext(req, httptest.NewRecorder())

	limit, offset := parsePage(eCtx)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}
