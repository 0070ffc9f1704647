// Package mailer implements the Email provider adapter over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/relaydesk/relaydesk/internal/channel"
)

const defaultSubject = "New message"

// Config holds the SMTP relay credentials and sender address.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

// dialer is the slice of *mail.Client the sender uses; a stub stands in
// during tests.
type dialer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// EmailSender sends outbound email through an SMTP relay.
type EmailSender struct {
	client  dialer
	from    string
	subject string
	logger  *slog.Logger
}

// NewEmailSender creates the Email adapter. The relay host and sender
// address are required at construction.
func NewEmailSender(log *slog.Logger, cfg Config) (*EmailSender, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email: %w", channel.ErrMisconfigured)
	}

	opts := []mail.Option{
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if strings.TrimSpace(cfg.Username) != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(strings.TrimSpace(cfg.Host), opts...)
	if err != nil {
		return nil, fmt.Errorf("email: %w", err)
	}

	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = defaultSubject
	}
	return &EmailSender{
		client:  client,
		from:    strings.TrimSpace(cfg.From),
		subject: subject,
		logger:  log.With(slog.String("adapter", "email")),
	}, nil
}

func (s *EmailSender) Type() channel.Type {
	return channel.TypeEmail
}

// Validate checks the minimum fields for an email send.
func (s *EmailSender) Validate(payload channel.Payload) error {
	if strings.TrimSpace(payload.To) == "" {
		return errors.New("recipient address is required")
	}
	if strings.TrimSpace(payload.Content) == "" {
		return errors.New("content is required")
	}
	if s.from == "" {
		return errors.New("no sender address configured")
	}
	return nil
}

func (s *EmailSender) Send(ctx context.Context, payload channel.Payload) channel.Result {
	if err := s.Validate(payload); err != nil {
		return channel.Failuref("invalid payload: %s", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return channel.Failuref("invalid sender address: %s", err)
	}
	if err := msg.To(strings.TrimSpace(payload.To)); err != nil {
		return channel.Failuref("invalid recipient address: %s", err)
	}
	msg.Subject(s.subject)

	body := payload.Content
	if len(payload.MediaURLs) > 0 {
		body += "\n\n" + strings.Join(payload.MediaURLs, "\n")
	}
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.SetMessageID()

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Warn("send failed", slog.String("to", payload.To), slog.Any("error", err))
		return channel.Failuref("smtp send: %s", err)
	}
	return channel.Result{
		Success:    true,
		ProviderID: msg.GetMessageID(),
		Status:     "sent",
		SentAt:     time.Now().UTC(),
	}
}
