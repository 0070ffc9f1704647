package twilio

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// WhatsAppSender sends WhatsApp messages through Twilio's WhatsApp
// transport. Addresses carry a whatsapp: prefix on the wire; the sender
// adds it when missing, idempotently.
type WhatsAppSender struct {
	client *Client
	from   string
	logger *slog.Logger
}

// NewWhatsAppSender creates the WhatsApp adapter. When no WhatsApp
// number is configured the Twilio sandbox sender is used.
func NewWhatsAppSender(log *slog.Logger, cfg Config, opts ...Option) (*WhatsAppSender, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	from := strings.TrimSpace(cfg.WhatsAppNumber)
	if from == "" {
		from = defaultWhatsAppFrom
	}
	return &WhatsAppSender{
		client: client,
		from:   channel.EnsureWhatsAppPrefix(from),
		logger: log.With(slog.String("adapter", "twilio-whatsapp")),
	}, nil
}

func (s *WhatsAppSender) Type() channel.Type {
	return channel.TypeWhatsApp
}

// Validate checks the minimum fields for a WhatsApp send.
func (s *WhatsAppSender) Validate(payload channel.Payload) error {
	if channel.StripWhatsAppPrefix(payload.To) == "" {
		return errors.New("recipient number is required")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return errors.New("content is required")
	}
	if s.from == "" {
		return errors.New("no sending number configured")
	}
	return nil
}

func (s *WhatsAppSender) Send(ctx context.Context, payload channel.Payload) channel.Result {
	if err := s.Validate(payload); err != nil {
		return channel.Failuref("invalid payload: %s", err)
	}
	payload.To = channel.EnsureWhatsAppPrefix(payload.To)
	payload.From = s.from
	result := s.client.send(ctx, payload)
	if !result.Success {
		s.logger.Warn("send failed", slog.String("to", payload.To), slog.String("error", result.Error))
	}
	return result
}
