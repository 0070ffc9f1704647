// Package channel defines the provider-neutral send contract: channel
// types, outbound payloads, send results, and the sender registry.
package channel

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies a communication channel (SMS, WHATSAPP, ...).
type Type string

const (
	TypeSMS      Type = "SMS"
	TypeWhatsApp Type = "WHATSAPP"
	TypeEmail    Type = "EMAIL"
	TypeTwitter  Type = "TWITTER"
	TypeFacebook Type = "FACEBOOK"
	TypeSlack    Type = "SLACK"
)

// All lists every known channel type.
func All() []Type {
	return []Type{TypeSMS, TypeWhatsApp, TypeEmail, TypeTwitter, TypeFacebook, TypeSlack}
}

func (t Type) String() string {
	return string(t)
}

// ParseType validates and normalizes a raw string into a known Type.
func ParseType(raw string) (Type, error) {
	normalized := Type(strings.ToUpper(strings.TrimSpace(raw)))
	for _, t := range All() {
		if normalized == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown channel type: %s", raw)
}

// Payload is the provider-neutral outbound message.
type Payload struct {
	To        string
	From      string
	Content   string
	MediaURLs []string
}

// Result is what a provider adapter reports after a send attempt.
// Transport and provider-side failures are captured here with
// Success=false; adapters never surface them as Go errors.
type Result struct {
	Success    bool      `json:"success"`
	ProviderID string    `json:"provider_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	SentAt     time.Time `json:"sent_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Failure builds a failed Result with a human-readable reason.
func Failure(reason string) Result {
	return Result{Success: false, Error: reason}
}

// Failuref builds a failed Result with a formatted reason.
func Failuref(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}
