package twilio

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// SMSSender sends plain SMS through Twilio.
type SMSSender struct {
	client *Client
	from   string
	logger *slog.Logger
}

// NewSMSSender creates the SMS adapter. The account credentials are
// required; the sending number is checked per payload by Validate.
func NewSMSSender(log *slog.Logger, cfg Config, opts ...Option) (*SMSSender, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &SMSSender{
		client: client,
		from:   strings.TrimSpace(cfg.PhoneNumber),
		logger: log.With(slog.String("adapter", "twilio-sms")),
	}, nil
}

func (s *SMSSender) Type() channel.Type {
	return channel.TypeSMS
}

// Validate checks the minimum fields for an SMS send.
func (s *SMSSender) Validate(payload channel.Payload) error {
	if strings.TrimSpace(payload.To) == "" {
		return errors.New("recipient number is required")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return errors.New("content is required")
	}
	if s.from == "" && strings.TrimSpace(payload.From) == "" {
		return errors.New("no sending number configured")
	}
	return nil
}

func (s *SMSSender) Send(ctx context.Context, payload channel.Payload) channel.Result {
	if err := s.Validate(payload); err != nil {
		return channel.Failuref("invalid payload: %s", err)
	}
	if strings.TrimSpace(payload.From) == "" {
		payload.From = s.from
	}
	result := s.client.send(ctx, payload)
	if !result.Success {
		s.logger.Warn("send failed", slog.String("to", payload.To), slog.String("error", result.Error))
	}
	return result
}
