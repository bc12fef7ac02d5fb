// Package store provides the notification broker's relational-store
// mutator (Appender) and accessor (Reader). Both are thin, opaque
// collaborators from the broker core's point of view — grounded on the
// teacher's append-only NotificationLogRepository.
package store

import (
	"time"

	"github.com/uptrace/bun"
)

// NotificationRecord is the append-only row written for every delivery
// that reaches the decode step with store_in_db set.
type NotificationRecord struct {
	bun.BaseModel `bun:"table:notification_records,alias:nr"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	NotifID      string    `bun:"notif_id,notnull" json:"notif_id"`
	ReceiverInfo string    `bun:"receiver_info,notnull" json:"receiver_info"`
	ActionerInfo string    `bun:"actioner_info,notnull" json:"actioner_info"`
	ActionType   string    `bun:"action_type,notnull" json:"action_type"`
	ActionData   []byte    `bun:"action_data,type:json" json:"action_data"`
	FiredAt      int64     `bun:"fired_at,notnull" json:"fired_at"`
	IsSeen       bool      `bun:"is_seen,notnull,default:false" json:"is_seen"`
}
