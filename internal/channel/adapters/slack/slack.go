// Package slack implements the Slack provider adapter.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// Config holds the Slack bot credentials.
type Config struct {
	BotToken string
	// APIURL overrides the Slack API endpoint (tests). Must end with "/".
	APIURL string
}

// Sender posts messages through the Slack Web API. The payload's To is
// a Slack channel or user ID; the returned message timestamp is the
// provider message id.
type Sender struct {
	client *slackapi.Client
	logger *slog.Logger
}

// NewSender creates the Slack adapter. The bot token is required.
func NewSender(log *slog.Logger, cfg Config) (*Sender, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, fmt.Errorf("slack: %w", channel.ErrMisconfigured)
	}
	opts := []slackapi.Option{}
	if cfg.APIURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(cfg.APIURL))
	}
	return &Sender{
		client: slackapi.New(strings.TrimSpace(cfg.BotToken), opts...),
		logger: log.With(slog.String("adapter", "slack")),
	}, nil
}

func (s *Sender) Type() channel.Type {
	return channel.TypeSlack
}

// Validate checks the minimum fields for a Slack send.
func (s *Sender) Validate(payload channel.Payload) error {
	if strings.TrimSpace(payload.To) == "" {
		return errors.New("slack channel or user id is required")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

func (s *Sender) Send(ctx context.Context, payload channel.Payload) channel.Result {
	if err := s.Validate(payload); err != nil {
		return channel.Failuref("invalid payload: %s", err)
	}

	opts := []slackapi.MsgOption{
		slackapi.MsgOptionText(payload.Content, false),
	}
	if len(payload.MediaURLs) > 0 {
		attachments := make([]slackapi.Attachment, 0, len(payload.MediaURLs))
		for _, mediaURL := range payload.MediaURLs {
			attachments = append(attachments, slackapi.Attachment{ImageURL: mediaURL})
		}
		opts = append(opts, slackapi.MsgOptionAttachments(attachments...))
	}

	_, timestamp, err := s.client.PostMessageContext(ctx, strings.TrimSpace(payload.To), opts...)
	if err != nil {
		s.logger.Warn("send failed", slog.String("to", payload.To), slog.Any("error", err))
		return channel.Failuref("slack send: %s", err)
	}
	return channel.Result{
		Success:    true,
		ProviderID: timestamp,
		Status:     "sent",
		SentAt:     time.Now().UTC(),
	}
}
