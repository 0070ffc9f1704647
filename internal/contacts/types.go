package contacts

import "time"

// Contact is one external conversation partner.
type Contact struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	WhatsAppPhone string    `json:"whatsapp_phone,omitempty"`
	TeamID        string    `json:"team_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewContact carries the fields for creating a contact. Inbound-created
// contacts start with exactly one known contact method.
type NewContact struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	WhatsAppPhone string
	TeamID        string
}

// Summary is a contact plus its message count, for the inbox sidebar.
type Summary struct {
	Contact
	MessageCount int64 `json:"message_count"`
}
