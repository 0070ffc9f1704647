package messages

import (
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// Direction distinguishes received from sent messages.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// Status is the delivery state recorded for a message.
type Status string

const (
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

// ProviderMetadata is the fixed schema recorded per provider delivery
// event. ProviderID combined with the message direction is the
// idempotency key.
type ProviderMetadata struct {
	ProviderID string    `json:"provider_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	SentAt     time.Time `json:"sent_at,omitempty"`
	MediaURL   string    `json:"media_url,omitempty"`
}

// Message is one immutable inbound or outbound communication record.
type Message struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	ChannelType channel.Type     `json:"channel_type"`
	Direction   Direction        `json:"direction"`
	Status      Status           `json:"status"`
	Metadata    ProviderMetadata `json:"metadata"`
	ContactID   string           `json:"contact_id"`
	ChannelID   string           `json:"channel_id"`
	CreatedAt   time.Time        `json:"created_at"`
}

// parseStoredType maps a stored channel type back to its enum value,
// passing unknown historical values through untouched.
func parseStoredType(raw string) channel.Type {
	if t, err := channel.ParseType(raw); err == nil {
		return t
	}
	return channel.Type(raw)
}

// NewMessage carries the fields for appending a message to the ledger.
type NewMessage struct {
	Content     string
	ChannelType channel.Type
	Direction   Direction
	Status      Status
	Metadata    ProviderMetadata
	ContactID   string
	ChannelID   string
}
