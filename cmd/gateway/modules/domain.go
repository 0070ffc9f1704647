package modules

import (
	"errors"
	"log/slog"

	"go.uber.org/fx"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/channel/adapters/mailer"
	slackadapter "github.com/relaydesk/relaydesk/internal/channel/adapters/slack"
	"github.com/relaydesk/relaydesk/internal/channel/adapters/twilio"
	"github.com/relaydesk/relaydesk/internal/channels"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/contacts"
	"github.com/relaydesk/relaydesk/internal/gateway"
	"github.com/relaydesk/relaydesk/internal/messages"
	"github.com/relaydesk/relaydesk/internal/teams"
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		teams.NewService,
		contacts.NewService,
		channels.NewService,
		messages.NewService,

		provideChannelRegistry,
		provideDispatcher,
		provideInbound,
	),
)

// ---------------------------------------------------------------------------
// domain service providers
// ---------------------------------------------------------------------------

// provideChannelRegistry builds the sender registry from configured
// providers. A provider with incomplete credentials is skipped with a
// warning; dispatching to its channel type then fails as unsupported.
func provideChannelRegistry(log *slog.Logger, cfg config.Config) (*channel.Registry, error) {
	registry := channel.NewRegistry()

	twilioCfg := twilio.Config{
		AccountSID:     cfg.Twilio.AccountSID,
		AuthToken:      cfg.Twilio.AuthToken,
		PhoneNumber:    cfg.Twilio.PhoneNumber,
		WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
	}
	sms, err := twilio.NewSMSSender(log, twilioCfg)
	if err := registerOrSkip(log, registry, sms, err, channel.TypeSMS); err != nil {
		return nil, err
	}
	wa, err := twilio.NewWhatsAppSender(log, twilioCfg)
	if err := registerOrSkip(log, registry, wa, err, channel.TypeWhatsApp); err != nil {
		return nil, err
	}

	email, err := mailer.NewEmailSender(log, mailer.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	if err := registerOrSkip(log, registry, email, err, channel.TypeEmail); err != nil {
		return nil, err
	}

	slack, err := slackadapter.NewSender(log, slackadapter.Config{BotToken: cfg.Slack.BotToken})
	if err := registerOrSkip(log, registry, slack, err, channel.TypeSlack); err != nil {
		return nil, err
	}

	return registry, nil
}

// registerOrSkip registers a constructed sender, tolerating missing
// credentials. Any other construction error is fatal.
func registerOrSkip(log *slog.Logger, registry *channel.Registry, sender channel.Sender, err error, channelType channel.Type) error {
	if err != nil {
		if errors.Is(err, channel.ErrMisconfigured) {
			log.Warn("channel adapter not configured, skipping",
				slog.String("channel_type", channelType.String()))
			return nil
		}
		return err
	}
	return registry.Register(sender)
}

func provideDispatcher(log *slog.Logger, registry *channel.Registry, contactService *contacts.Service, channelService *channels.Service, messageService *messages.Service) *gateway.Dispatcher {
	return gateway.NewDispatcher(log, registry, contactService, channelService, messageService)
}

func provideInbound(log *slog.Logger, contactService *contacts.Service, channelService *channels.Service, messageService *messages.Service, teamService *teams.Service) *gateway.Inbound {
	return gateway.NewInbound(log, contactService, channelService, messageService, teamService)
}
