package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ichi-go/internal/applications/notifbroker/dto"
)

// Appender is the relational-store mutator: an opaque "append one
// notification record" sink, as spec.md §1 treats it.
type Appender interface {
	AppendNotification(ctx context.Context, n dto.NotifData) error
}

// Reader is the relational-store accessor: paginated notification history
// by receiver.
type Reader interface {
	ListByReceiver(ctx context.Context, receiver string, limit, offset int) ([]dto.NotifData, error)
}

type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AppendNotification(ctx context.Context, n dto.NotifData) error {
	record := &NotificationRecord{
		NotifID:      n.ID,
		ReceiverInfo: n.ReceiverInfo,
		ActionerInfo: n.ActionerInfo,
		ActionType:   string(n.ActionType),
		ActionData:   []byte(n.ActionData),
		FiredAt:      n.FiredAt,
		IsSeen:       n.IsSeen,
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("store: append notification: %w", err)
	}
	return nil
}

func (r *Repository) ListByReceiver(ctx context.Context, receiver string, limit, offset int) ([]dto.NotifData, error) {
	var records []NotificationRecord
	err := r.db.NewSelect().
		Model(&records).
		Where("receiver_info = ?", receiver).
		OrderExpr("fired_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list by receiver %q: %w", receiver, err)
	}

	out := make([]dto.NotifData, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.NotifData{
			ID:           rec.NotifID,
			ReceiverInfo: rec.ReceiverInfo,
			ActionData:   rec.ActionData,
			ActionerInfo: rec.ActionerInfo,
			ActionType:   dto.ActionType(rec.ActionType),
			FiredAt:      rec.FiredAt,
			IsSeen:       rec.IsSeen,
		})
	}
	return out, nil
}
