// Package dto holds the wire-level types shared by every notifbroker
// component: the notification payload itself and the command envelopes
// accepted by the broker actor.
package dto

import "encoding/json"

// ActionType tags the kind of domain event a NotifData carries.
type ActionType string

const (
	ActionProductPurchased ActionType = "ProductPurchased"
	ActionZerlog           ActionType = "Zerlog"
	ActionEventCreated     ActionType = "EventCreated"
	ActionEventExpired     ActionType = "EventExpired"
	ActionEventLocked      ActionType = "EventLocked"
)

// NotifData is the unit of transport carried on the wire, in the cache,
// and in the relational store.
type NotifData struct {
	ID           string          `json:"id"`
	ReceiverInfo string          `json:"receiver_info"`
	ActionData   json.RawMessage `json:"action_data"`
	ActionerInfo string          `json:"actioner_info"`
	ActionType   ActionType      `json:"action_type"`
	FiredAt      int64           `json:"fired_at"`
	IsSeen       bool            `json:"is_seen"`
}

// UnmarshalJSON defaults ActionType to ActionProductPurchased when the
// field is absent or empty, mirroring the original Rust enum's #[derive(Default)].
func (n *NotifData) UnmarshalJSON(b []byte) error {
	type alias NotifData
	aux := struct{ *alias }{alias: (*alias)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if n.ActionType == "" {
		n.ActionType = ActionProductPurchased
	}
	return nil
}

// CryptoConfig is the caller-supplied key material for a single produce or
// consume call. Secret and Passphrase are raw bytes; the core hex-encodes
// them before handing them to the cipher service.
type CryptoConfig struct {
	Secret        []byte
	Passphrase    []byte
	UniqueRedisID string
}

// SecureCellConfig is the cipher's internal working state. Data holds
// ciphertext after Encrypt and plaintext after Decrypt.
type SecureCellConfig struct {
	SecretKeyHex  string `json:"secret_key_hex"`
	PassphraseHex string `json:"passphrase_hex"`
	Data          []byte `json:"data"`
}
