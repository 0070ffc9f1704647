package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/contacts"
	"github.com/relaydesk/relaydesk/internal/messages"
	"github.com/relaydesk/relaydesk/internal/teams"
)

const defaultStoreTimeout = 10 * time.Second

// InboundEvent is a provider webhook delivery normalized to the fields
// the gateway consumes.
type InboundEvent struct {
	ProviderID string
	From       string
	To         string
	Body       string
	NumMedia   int
	MediaURL   string
	Status     string
}

// Ack reports the outcome of an inbound event to the webhook handler.
// Duplicate deliveries acknowledge success without a second row.
type Ack struct {
	Message   messages.Message
	Duplicate bool
}

// Inbound normalizes provider webhook events: it detects the channel
// type, resolves or creates the owning contact and channel, and
// persists exactly one message per provider delivery event.
type Inbound struct {
	contacts ContactStore
	channels ChannelStore
	messages MessageStore
	teams    TeamDirectory
	logger   *slog.Logger

	// storeTimeout bounds the persistence sequence per event.
	storeTimeout time.Duration
}

func NewInbound(log *slog.Logger, contactStore ContactStore, channelStore ChannelStore, messageStore MessageStore, teamDirectory TeamDirectory) *Inbound {
	if log == nil {
		log = slog.Default()
	}
	return &Inbound{
		contacts:     contactStore,
		channels:     channelStore,
		messages:     messageStore,
		teams:        teamDirectory,
		logger:       log.With(slog.String("service", "inbound")),
		storeTimeout: defaultStoreTimeout,
	}
}

// HandleEvent processes one inbound provider event. Re-deliveries of
// the same provider message id come back with Ack.Duplicate set and no
// new row.
func (s *Inbound) HandleEvent(ctx context.Context, event InboundEvent) (Ack, error) {
	from := strings.TrimSpace(event.From)
	if from == "" {
		return Ack{}, fmt.Errorf("%w: sender address is required", ErrValidation)
	}

	// A whatsapp: prefix on either side of the exchange marks the
	// WhatsApp transport; plain numbers are SMS.
	channelType := channel.TypeSMS
	if channel.HasWhatsAppPrefix(event.From) || channel.HasWhatsAppPrefix(event.To) {
		channelType = channel.TypeWhatsApp
	}
	address := channel.StripWhatsAppPrefix(from)

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	contact, err := s.resolveContact(ctx, address, channelType)
	if err != nil {
		return Ack{}, err
	}

	ch, err := s.channels.FindOrCreateDefault(ctx, contact.TeamID, channelType)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metadata := messages.ProviderMetadata{
		ProviderID: strings.TrimSpace(event.ProviderID),
		Status:     strings.TrimSpace(event.Status),
	}
	if event.NumMedia > 0 {
		metadata.MediaURL = strings.TrimSpace(event.MediaURL)
	}

	msg, duplicate, err := s.messages.Create(ctx, messages.NewMessage{
		Content:     event.Body,
		ChannelType: channelType,
		Direction:   messages.DirectionInbound,
		Status:      messages.StatusDelivered,
		Metadata:    metadata,
		ContactID:   contact.ID,
		ChannelID:   ch.ID,
	})
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("inbound message recorded",
		slog.String("message_id", msg.ID),
		slog.String("contact_id", contact.ID),
		slog.String("channel_type", channelType.String()),
		slog.String("provider_id", metadata.ProviderID),
		slog.Bool("duplicate", duplicate),
	)
	return Ack{Message: msg, Duplicate: duplicate}, nil
}

// resolveContact finds the contact owning the sender address, creating
// one under the fallback team on first contact. The address lands in
// the field matching the channel type; a match on either phone field
// resolves to the existing contact.
func (s *Inbound) resolveContact(ctx context.Context, address string, channelType channel.Type) (contacts.Contact, error) {
	contact, err := s.contacts.FindByAddress(ctx, address)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, contacts.ErrNotFound) {
		return contacts.Contact{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	team, err := s.teams.FindAny(ctx)
	if err != nil {
		if errors.Is(err, teams.ErrNotFound) {
			return contacts.Contact{}, ErrNoTeamAvailable
		}
		return contacts.Contact{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	params := contacts.NewContact{TeamID: team.ID}
	if channelType == channel.TypeWhatsApp {
		params.WhatsAppPhone = address
	} else {
		params.Phone = address
	}
	contact, err = s.contacts.FindOrCreateByAddress(ctx, address, params)
	if err != nil {
		return contacts.Contact{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return contact, nil
}
