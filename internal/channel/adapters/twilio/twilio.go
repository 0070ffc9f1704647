// Package twilio implements the SMS and WhatsApp provider adapters over
// the Twilio Messages REST API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	messagesPath   = "/2010-04-01/Accounts/%s/Messages.json"

	// Twilio's documented sandbox sender, used when no WhatsApp number
	// is provisioned on the account.
	defaultWhatsAppFrom = "whatsapp:+14155238886"
)

// Config holds the Twilio account credentials and sending addresses.
type Config struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

// Client is a minimal Twilio Messages API client over stdlib net/http.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Twilio API client. Missing credentials fail here
// so operator error surfaces at startup rather than per request.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("twilio: %w", channel.ErrMisconfigured)
	}
	c := &Client{
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// messageResponse captures the fields of a Messages API response the
// gateway records as provider metadata.
type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	DateCreated  string `json:"date_created"`
	ErrorMessage string `json:"message"`
}

// createMessage POSTs a form-encoded message create request and decodes
// the response. A non-2xx status is returned as an error carrying the
// provider's message text.
func (c *Client) createMessage(ctx context.Context, form url.Values) (messageResponse, error) {
	endpoint := c.baseURL + fmt.Sprintf(messagesPath, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return messageResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return messageResponse{}, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var decoded messageResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return messageResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := strings.TrimSpace(decoded.ErrorMessage)
		if reason == "" {
			reason = strings.TrimSpace(string(body))
		}
		return messageResponse{}, fmt.Errorf("twilio returned %d: %s", resp.StatusCode, reason)
	}
	return decoded, nil
}

// send performs the provider call shared by the SMS and WhatsApp senders.
func (c *Client) send(ctx context.Context, payload channel.Payload) channel.Result {
	form := url.Values{}
	form.Set("To", payload.To)
	form.Set("From", payload.From)
	form.Set("Body", payload.Content)
	for _, mediaURL := range payload.MediaURLs {
		form.Add("MediaUrl", mediaURL)
	}

	resp, err := c.createMessage(ctx, form)
	if err != nil {
		return channel.Failure(err.Error())
	}
	return channel.Result{
		Success:    true,
		ProviderID: resp.SID,
		Status:     resp.Status,
		SentAt:     parseTwilioTime(resp.DateCreated),
	}
}

// parseTwilioTime parses the RFC 2822 timestamps Twilio emits
// (e.g. "Mon, 02 Jan 2006 15:04:05 +0000"); a missing or malformed
// value falls back to now.
func parseTwilioTime(value string) time.Time {
	if parsed, err := time.Parse(time.RFC1123Z, strings.TrimSpace(value)); err == nil {
		return parsed.UTC()
	}
	return time.Now().UTC()
}
