package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/channels"
	"github.com/relaydesk/relaydesk/internal/contacts"
	"github.com/relaydesk/relaydesk/internal/messages"
	"github.com/relaydesk/relaydesk/internal/teams"
)

// memoryStore backs handler tests with the gateway store interfaces,
// mirroring the uniqueness rules the real database enforces.
type memoryStore struct {
	mu       sync.Mutex
	contacts map[string]contacts.Contact
	channels map[string]channels.Channel
	messages []messages.Message
	teams    []teams.Team
	nextID   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		contacts: make(map[string]contacts.Contact),
		channels: make(map[string]channels.Channel),
	}
}

func (m *memoryStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memoryStore) addTeam(name string) teams.Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	team := teams.Team{ID: m.id("team"), Name: name}
	m.teams = append(m.teams, team)
	return team
}

func (m *memoryStore) addContact(c contacts.Contact) contacts.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = m.id("contact")
	}
	m.contacts[c.ID] = c
	return c
}

func (m *memoryStore) GetByID(_ context.Context, contactID string) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contactID]
	if !ok {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) FindByAddress(_ context.Context, address string) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Phone == address || c.WhatsAppPhone == address {
			return c, nil
		}
	}
	return contacts.Contact{}, contacts.ErrNotFound
}

func (m *memoryStore) FindOrCreateByAddress(ctx context.Context, address string, params contacts.NewContact) (contacts.Contact, error) {
	if c, err := m.FindByAddress(ctx, address); err == nil {
		return c, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := contacts.Contact{
		ID:            m.id("contact"),
		Phone:         params.Phone,
		WhatsAppPhone: params.WhatsAppPhone,
		TeamID:        params.TeamID,
	}
	m.contacts[c.ID] = c
	return c, nil
}

func (m *memoryStore) FindOrCreateDefault(_ context.Context, teamID string, channelType channel.Type) (channels.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := teamID + "/" + channelType.String()
	if ch, ok := m.channels[key]; ok {
		return ch, nil
	}
	ch := channels.Channel{
		ID:          m.id("channel"),
		Name:        fmt.Sprintf("%s Channel", channelType),
		ChannelType: channelType,
		TeamID:      teamID,
	}
	m.channels[key] = ch
	return ch, nil
}

func (m *memoryStore) Create(_ context.Context, params messages.NewMessage) (messages.Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if params.Metadata.ProviderID != "" {
		for _, existing := range m.messages {
			if existing.Metadata.ProviderID == params.Metadata.ProviderID && existing.Direction == params.Direction {
				return existing, true, nil
			}
		}
	}
	msg := messages.Message{
		ID:          m.id("msg"),
		Content:     params.Content,
		ChannelType: params.ChannelType,
		Direction:   params.Direction,
		Status:      params.Status,
		Metadata:    params.Metadata,
		ContactID:   params.ContactID,
		ChannelID:   params.ChannelID,
	}
	m.messages = append(m.messages, msg)
	return msg, false, nil
}

func (m *memoryStore) FindAny(_ context.Context) (teams.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.teams) == 0 {
		return teams.Team{}, teams.ErrNotFound
	}
	return m.teams[0], nil
}
