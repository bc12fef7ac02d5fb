package controller

import "ichi-go/internal/applications/notifbroker/dto"

// RegisterNotifRequest is the request body for POST /notifications.
type RegisterNotifRequest struct {
	ReceiverInfo  string `json:"receiver_info" validate:"required"`
	ActionData    []byte `json:"action_data" validate:"required"`
	ActionerInfo  string `json:"actioner_info" validate:"required"`
	ActionType    string `json:"action_type"`
	ExchangeName  string `json:"exchange_name" validate:"required"`
	ExchangeType  string `json:"exchange_type" validate:"required,oneof=fanout direct headers topic"`
	RoutingKey    string `json:"routing_key" validate:"required"`
	Secret        string `json:"secret,omitempty"`
	Passphrase    string `json:"passphrase,omitempty"`
	UniqueRedisID string `json:"unique_redis_id,omitempty"`
}

// toProduceNotif maps the validated request onto the broker actor's
// command envelope. Mapped by hand (not dto-mapper) where field shapes
// diverge — ActionType's string→typed-enum conversion and the
// CryptoConfig's conditional presence are both the kind of transform
// dto-mapper's reflection-based Map does not express.
func (r RegisterNotifRequest) toProduceNotif() dto.ProduceNotif {
	cmd := dto.ProduceNotif{
		LocalSpawn:   true,
		ExchangeName: r.ExchangeName,
		ExchangeType: r.ExchangeType,
		RoutingKey:   r.RoutingKey,
		NotifData: dto.NotifData{
			ReceiverInfo: r.ReceiverInfo,
			ActionData:   r.ActionData,
			ActionerInfo: r.ActionerInfo,
			ActionType:   dto.ActionType(r.ActionType),
		},
	}
	if cmd.NotifData.ActionType == "" {
		cmd.NotifData.ActionType = dto.ActionProductPurchased
	}
	if r.Secret != "" && r.Passphrase != "" {
		cmd.EncryptionConfig = &dto.CryptoConfig{
			Secret:        []byte(r.Secret),
			Passphrase:    []byte(r.Passphrase),
			UniqueRedisID: r.UniqueRedisID,
		}
	}
	return cmd
}

// NotifResponse is the JSON shape returned by get_notif/get_single_notif.
type NotifResponse struct {
	ID           string `json:"id"`
	ReceiverInfo string `json:"receiver_info"`
	ActionerInfo string `json:"actioner_info"`
	ActionType   string `json:"action_type"`
	FiredAt      int64  `json:"fired_at"`
	IsSeen       bool   `json:"is_seen"`
}

func toNotifResponse(n dto.NotifData) NotifResponse {
	return NotifResponse{
		ID:           n.ID,
		ReceiverInfo: n.ReceiverInfo,
		ActionerInfo: n.ActionerInfo,
		ActionType:   string(n.ActionType),
		FiredAt:      n.FiredAt,
		IsSeen:       n.IsSeen,
	}
}
