package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/channel/adapters/twilio"
	"github.com/relaydesk/relaydesk/internal/gateway"
)

const (
	testAuthToken = "test-auth-token"
	testBaseURL   = "https://gw.example.com"
)

func newWebhookTest(store *memoryStore, enforce bool) (*echo.Echo, *TwilioWebhookHandler) {
	inbound := gateway.NewInbound(nil, store, store, store, store)
	h := NewTwilioWebhookHandler(slog.Default(), inbound, testAuthToken, enforce, testBaseURL)
	e := echo.New()
	h.Register(e)
	return e, h
}

func postWebhook(e *echo.Echo, form url.Values, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if signature != "" {
		req.Header.Set(twilioSignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signedForm(form url.Values) string {
	return twilio.ComputeSignature(testAuthToken, testBaseURL+"/webhooks/twilio", form)
}

func smsForm(sid, from, body string) url.Values {
	form := url.Values{}
	form.Set("MessageSid", sid)
	form.Set("From", from)
	form.Set("To", "+15559990000")
	form.Set("Body", body)
	form.Set("NumMedia", "0")
	form.Set("SmsStatus", "received")
	return form
}

func TestWebhookAcceptsSignedRequest(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM100", "+15551234567", "hello")
	rec := postWebhook(e, form, signedForm(form))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Duplicate {
		t.Error("first delivery marked duplicate")
	}
	if len(store.messages) != 1 {
		t.Errorf("messages persisted = %d, want 1", len(store.messages))
	}
}

func TestWebhookRejectsBadSignatureWhenEnforced(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM101", "+15551234567", "hello")

	t.Run("wrong signature", func(t *testing.T) {
		t.Parallel()
		rec := postWebhook(e, form, "bogus-signature")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		rec := postWebhook(e, form, "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestWebhookBadSignatureLoggedWhenNotEnforced(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, false)

	form := smsForm("SM102", "+15551234567", "hello")
	rec := postWebhook(e, form, "bogus-signature")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with enforcement off", rec.Code)
	}
	if len(store.messages) != 1 {
		t.Errorf("messages persisted = %d, want 1", len(store.messages))
	}
}

func TestWebhookDuplicateDeliveryAcknowledged(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM103", "+15551234567", "once")
	sig := signedForm(form)

	first := postWebhook(e, form, sig)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", first.Code)
	}
	second := postWebhook(e, form, sig)
	if second.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", second.Code)
	}

	var body struct {
		Duplicate bool `json:"duplicate"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Duplicate {
		t.Error("redelivery not marked duplicate")
	}
	if len(store.messages) != 1 {
		t.Errorf("messages persisted = %d, want 1", len(store.messages))
	}
}

func TestWebhookWhatsAppMedia(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := url.Values{}
	form.Set("MessageSid", "MM104")
	form.Set("From", "whatsapp:+15551234567")
	form.Set("To", "whatsapp:+14155238886")
	form.Set("Body", "")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://api.twilio.com/media/1")

	rec := postWebhook(e, form, signedForm(form))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if len(store.messages) != 1 {
		t.Fatalf("messages persisted = %d, want 1", len(store.messages))
	}
	msg := store.messages[0]
	if msg.ChannelType.String() != "WHATSAPP" {
		t.Errorf("channel type = %s, want WHATSAPP", msg.ChannelType)
	}
	if msg.Metadata.MediaURL != "https://api.twilio.com/media/1" {
		t.Errorf("media url = %q, want the provider url", msg.Metadata.MediaURL)
	}
}

// Twilio signs the full URL including its query string, but only the
// POST body fields enter the parameter concatenation. A webhook URL
// configured with a query string must still verify.
func TestWebhookSignedURLWithQueryString(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM106", "+15551234567", "hello")
	sig := twilio.ComputeSignature(testAuthToken, testBaseURL+"/webhooks/twilio?token=abc", form)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio?token=abc", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(twilioSignatureHeader, sig)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if len(store.messages) != 1 {
		t.Errorf("messages persisted = %d, want 1", len(store.messages))
	}
}

// An instance with no team cannot place inbound messages anywhere;
// that is a setup error, and a 500 would keep the provider retrying.
func TestWebhookNoTeamConfigured(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM107", "+15551234567", "hello")
	rec := postWebhook(e, form, signedForm(form))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(store.messages) != 0 {
		t.Errorf("messages persisted = %d, want 0", len(store.messages))
	}
}

func TestWebhookMissingSenderRejected(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.addTeam("Support")
	e, _ := newWebhookTest(store, true)

	form := smsForm("SM105", "", "no sender")
	rec := postWebhook(e, form, signedForm(form))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
