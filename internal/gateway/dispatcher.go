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
)

const defaultSendTimeout = 30 * time.Second

// DispatchRequest is an outbound send order from the dashboard.
type DispatchRequest struct {
	ContactID   string       `json:"contactId"`
	Content     string       `json:"content"`
	ChannelType channel.Type `json:"channelType"`
	MediaURLs   []string     `json:"mediaUrl,omitempty"`
}

// DispatchResult is the persisted message plus the raw provider result.
type DispatchResult struct {
	Message  messages.Message `json:"message"`
	Provider channel.Result   `json:"result"`
}

// Dispatcher validates outbound sends, routes them through the adapter
// registry, and records exactly one message on success.
type Dispatcher struct {
	registry *channel.Registry
	contacts ContactStore
	channels ChannelStore
	messages MessageStore
	logger   *slog.Logger

	// sendTimeout bounds the provider network call so a slow provider
	// cannot hold the request handler indefinitely.
	sendTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry *channel.Registry, contactStore ContactStore, channelStore ChannelStore, messageStore MessageStore) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry:    registry,
		contacts:    contactStore,
		channels:    channelStore,
		messages:    messageStore,
		logger:      log.With(slog.String("service", "dispatcher")),
		sendTimeout: defaultSendTimeout,
	}
}

// Dispatch sends one outbound message. Side effects only occur on the
// success path: one provider call, at most one channel creation,
// exactly one message row. A failed send persists nothing; the retry
// decision belongs to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return DispatchResult{}, fmt.Errorf("%w: content is required", ErrValidation)
	}
	channelType, err := channel.ParseType(string(req.ChannelType))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	contact, err := d.contacts.GetByID(ctx, req.ContactID)
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return DispatchResult{}, ErrContactNotFound
		}
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	to := RecipientAddress(contact, channelType)
	if to == "" {
		return DispatchResult{}, fmt.Errorf("%w: no %s contact info available", ErrNoAddressForChannel, channelType)
	}

	sender, ok := d.registry.Get(channelType)
	if !ok {
		return DispatchResult{}, fmt.Errorf("%w: %s", ErrUnsupportedChannel, channelType)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	result := sender.Send(sendCtx, channel.Payload{
		To:        to,
		Content:   req.Content,
		MediaURLs: req.MediaURLs,
	})
	if !result.Success {
		d.logger.Warn("outbound send failed",
			slog.String("contact_id", contact.ID),
			slog.String("channel_type", channelType.String()),
			slog.String("error", result.Error),
		)
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return DispatchResult{}, fmt.Errorf("%w: %s", ErrTimeout, result.Error)
		}
		return DispatchResult{}, fmt.Errorf("%w: %s", ErrSendFailed, result.Error)
	}

	ch, err := d.channels.FindOrCreateDefault(ctx, contact.TeamID, channelType)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metadata := messages.ProviderMetadata{
		ProviderID: result.ProviderID,
		Status:     result.Status,
		SentAt:     result.SentAt,
	}
	if len(req.MediaURLs) > 0 {
		metadata.MediaURL = req.MediaURLs[0]
	}
	msg, duplicate, err := d.messages.Create(ctx, messages.NewMessage{
		Content:     req.Content,
		ChannelType: channelType,
		Direction:   messages.DirectionOutbound,
		Status:      messages.StatusSent,
		Metadata:    metadata,
		ContactID:   contact.ID,
		ChannelID:   ch.ID,
	})
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if duplicate {
		// Providers hand out fresh ids per accepted send, so a collision
		// here means a double submission slipped past the caller.
		d.logger.Warn("provider id already recorded on an outbound message",
			slog.String("message_id", msg.ID),
			slog.String("provider_id", result.ProviderID),
		)
	}

	d.logger.Info("outbound message sent",
		slog.String("message_id", msg.ID),
		slog.String("contact_id", contact.ID),
		slog.String("channel_type", channelType.String()),
		slog.String("provider_id", result.ProviderID),
	)
	return DispatchResult{Message: msg, Provider: result}, nil
}

// RecipientAddress picks the outbound address from a contact using the
// channel-type-specific field precedence: WhatsApp prefers the
// WhatsApp-specific number and falls back to the generic phone.
func RecipientAddress(contact contacts.Contact, channelType channel.Type) string {
	switch channelType {
	case channel.TypeSMS:
		return strings.TrimSpace(contact.Phone)
	case channel.TypeWhatsApp:
		if wa := strings.TrimSpace(contact.WhatsAppPhone); wa != "" {
			return wa
		}
		return strings.TrimSpace(contact.Phone)
	case channel.TypeEmail:
		return strings.TrimSpace(contact.Email)
	default:
		return ""
	}
}
