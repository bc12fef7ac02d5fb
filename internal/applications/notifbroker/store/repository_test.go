package store_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/internal/applications/notifbroker/store"
)

// Compile-time assertions: *Repository must satisfy both Appender and
// Reader. If either interface or the repository diverge in signature,
// this file fails to compile.
var (
	_ store.Appender = (*store.Repository)(nil)
	_ store.Reader   = (*store.Repository)(nil)
)

func TestNotificationRecord_TableName(t *testing.T) {
	field, ok := reflect.TypeOf(store.NotificationRecord{}).FieldByName("BaseModel")
	assert.True(t, ok)
	assert.Contains(t, field.Tag.Get("bun"), "table:notification_records")
}

func TestNotifData_MapsToRecordFields(t *testing.T) {
	actionData := json.RawMessage(`{"sku":"ABC"}`)
	n := dto.NotifData{
		ID:           "n-1",
		ReceiverInfo: "user-1",
		ActionData:   actionData,
		ActionerInfo: "system",
		ActionType:   dto.ActionEventCreated,
		FiredAt:      100,
		IsSeen:       false,
	}

	rec := store.NotificationRecord{
		NotifID:      n.ID,
		ReceiverInfo: n.ReceiverInfo,
		ActionerInfo: n.ActionerInfo,
		ActionType:   string(n.ActionType),
		ActionData:   []byte(n.ActionData),
		FiredAt:      n.FiredAt,
		IsSeen:       n.IsSeen,
	}

	assert.Equal(t, n.ID, rec.NotifID)
	assert.Equal(t, n.ReceiverInfo, rec.ReceiverInfo)
	assert.Equal(t, []byte(n.ActionData), rec.ActionData)
	assert.Equal(t, string(n.ActionType), rec.ActionType)
	assert.Equal(t, n.FiredAt, rec.FiredAt)
	assert.Equal(t, n.IsSeen, rec.IsSeen)
}
