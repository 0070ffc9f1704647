package channel

import "strings"

// WhatsAppPrefix is the protocol prefix carried by WhatsApp addresses
// on the SMS transport (e.g. "whatsapp:+15551234567").
const WhatsAppPrefix = "whatsapp:"

// EnsureWhatsAppPrefix adds the whatsapp: prefix to an address if it is
// missing. Applying it twice yields the same result.
func EnsureWhatsAppPrefix(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, WhatsAppPrefix) {
		return trimmed
	}
	return WhatsAppPrefix + trimmed
}

// StripWhatsAppPrefix removes the whatsapp: prefix from an address so
// it can be matched and stored as a plain phone number.
func StripWhatsAppPrefix(addr string) string {
	return strings.TrimPrefix(strings.TrimSpace(addr), WhatsAppPrefix)
}

// HasWhatsAppPrefix reports whether the address carries the whatsapp: prefix.
func HasWhatsAppPrefix(addr string) bool {
	return strings.HasPrefix(strings.TrimSpace(addr), WhatsAppPrefix)
}
