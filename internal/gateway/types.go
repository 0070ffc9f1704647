// Package gateway implements the message gateway core: the outbound
// dispatcher and the inbound webhook normalizer, orchestrating provider
// adapters and the persistence layer.
package gateway

import (
	"context"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/channels"
	"github.com/relaydesk/relaydesk/internal/contacts"
	"github.com/relaydesk/relaydesk/internal/messages"
	"github.com/relaydesk/relaydesk/internal/teams"
)

// ContactStore is the slice of the contact service the gateway consumes.
type ContactStore interface {
	GetByID(ctx context.Context, contactID string) (contacts.Contact, error)
	FindByAddress(ctx context.Context, address string) (contacts.Contact, error)
	FindOrCreateByAddress(ctx context.Context, address string, params contacts.NewContact) (contacts.Contact, error)
}

// ChannelStore resolves a team's default channel per channel type.
type ChannelStore interface {
	FindOrCreateDefault(ctx context.Context, teamID string, channelType channel.Type) (channels.Channel, error)
}

// MessageStore appends messages with at-most-once semantics per
// provider delivery event.
type MessageStore interface {
	Create(ctx context.Context, params messages.NewMessage) (messages.Message, bool, error)
}

// TeamDirectory is the slice of the team service the gateway consumes.
// FindAny is only used as the owning-team fallback for inbound-created
// contacts.
type TeamDirectory interface {
	FindAny(ctx context.Context) (teams.Team, error)
}
