package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/channels"
	"github.com/relaydesk/relaydesk/internal/contacts"
	"github.com/relaydesk/relaydesk/internal/messages"
	"github.com/relaydesk/relaydesk/internal/teams"
)

// fakeStore is an in-memory stand-in for the persistence layer that
// mirrors the database uniqueness rules the gateway relies on.
type fakeStore struct {
	mu       sync.Mutex
	contacts map[string]contacts.Contact
	channels map[string]channels.Channel
	messages []messages.Message
	teams    []teams.Team

	nextID     int
	contactErr error
	channelErr error
	messageErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contacts: make(map[string]contacts.Contact),
		channels: make(map[string]channels.Channel),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) addTeam(name string) teams.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	team := teams.Team{ID: f.id("team"), Name: name}
	f.teams = append(f.teams, team)
	return team
}

func (f *fakeStore) addContact(c contacts.Contact) contacts.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.id("contact")
	}
	f.contacts[c.ID] = c
	return c
}

func (f *fakeStore) GetByID(_ context.Context, contactID string) (contacts.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactErr != nil {
		return contacts.Contact{}, f.contactErr
	}
	c, ok := f.contacts[contactID]
	if !ok {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) FindByAddress(_ context.Context, address string) (contacts.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactErr != nil {
		return contacts.Contact{}, f.contactErr
	}
	for _, c := range f.contacts {
		if c.Phone == address || c.WhatsAppPhone == address {
			return c, nil
		}
	}
	return contacts.Contact{}, contacts.ErrNotFound
}

func (f *fakeStore) FindOrCreateByAddress(ctx context.Context, address string, params contacts.NewContact) (contacts.Contact, error) {
	if c, err := f.FindByAddress(ctx, address); err == nil {
		return c, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := contacts.Contact{
		ID:            f.id("contact"),
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Email:         params.Email,
		Phone:         params.Phone,
		WhatsAppPhone: params.WhatsAppPhone,
		TeamID:        params.TeamID,
	}
	f.contacts[c.ID] = c
	return c, nil
}

func (f *fakeStore) FindOrCreateDefault(_ context.Context, teamID string, channelType channel.Type) (channels.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return channels.Channel{}, f.channelErr
	}
	key := teamID + "/" + channelType.String()
	if ch, ok := f.channels[key]; ok {
		return ch, nil
	}
	ch := channels.Channel{
		ID:          f.id("channel"),
		Name:        fmt.Sprintf("%s Channel", channelType),
		ChannelType: channelType,
		TeamID:      teamID,
	}
	f.channels[key] = ch
	return ch, nil
}

func (f *fakeStore) Create(_ context.Context, params messages.NewMessage) (messages.Message, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messageErr != nil {
		return messages.Message{}, false, f.messageErr
	}
	if params.Metadata.ProviderID != "" {
		for _, m := range f.messages {
			if m.Metadata.ProviderID == params.Metadata.ProviderID && m.Direction == params.Direction {
				return m, true, nil
			}
		}
	}
	msg := messages.Message{
		ID:          f.id("msg"),
		Content:     params.Content,
		ChannelType: params.ChannelType,
		Direction:   params.Direction,
		Status:      params.Status,
		Metadata:    params.Metadata,
		ContactID:   params.ContactID,
		ChannelID:   params.ChannelID,
	}
	f.messages = append(f.messages, msg)
	return msg, false, nil
}

func (f *fakeStore) FindAny(_ context.Context) (teams.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.teams) == 0 {
		return teams.Team{}, teams.ErrNotFound
	}
	return f.teams[0], nil
}

// scriptedSender returns a canned Result and records the payloads it
// was asked to send.
type scriptedSender struct {
	channelType channel.Type
	result      channel.Result
	validateErr error

	mu    sync.Mutex
	sends []channel.Payload
}

func (s *scriptedSender) Type() channel.Type { return s.channelType }

func (s *scriptedSender) Validate(channel.Payload) error { return s.validateErr }

func (s *scriptedSender) Send(_ context.Context, payload channel.Payload) channel.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, payload)
	return s.result
}

func (s *scriptedSender) sent() []channel.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]channel.Payload(nil), s.sends...)
}

var errStoreDown = errors.New("connection refused")
