package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/channel/adapters/twilio"
	"github.com/relaydesk/relaydesk/internal/gateway"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// TwilioWebhookHandler receives Twilio SMS and WhatsApp delivery
// callbacks, authenticates them by request signature, and hands the
// normalized event to the inbound pipeline.
type TwilioWebhookHandler struct {
	inbound *gateway.Inbound
	logger  *slog.Logger

	authToken        string
	enforceSignature bool

	// publicBaseURL is the externally visible scheme and host Twilio
	// signed the request against, needed when the service sits behind a
	// TLS-terminating proxy.
	publicBaseURL string
}

func NewTwilioWebhookHandler(log *slog.Logger, inbound *gateway.Inbound, authToken string, enforceSignature bool, publicBaseURL string) *TwilioWebhookHandler {
	return &TwilioWebhookHandler{
		inbound:          inbound,
		logger:           log.With(slog.String("handler", "twilio_webhook")),
		authToken:        authToken,
		enforceSignature: enforceSignature,
		publicBaseURL:    strings.TrimRight(publicBaseURL, "/"),
	}
}

func (h *TwilioWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/twilio", h.Receive)
}

// Receive handles one Twilio message webhook. Redeliveries of the same
// MessageSid are acknowledged without creating a second message.
func (h *TwilioWebhookHandler) Receive(c echo.Context) error {
	// Twilio signs the full request URL plus the POST body fields, so
	// the query string must stay out of the parameter set.
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	params := c.Request().PostForm

	if !h.verifySignature(c, params) {
		if h.enforceSignature {
			return echo.NewHTTPError(http.StatusForbidden, gateway.ErrInvalidSignature.Error())
		}
		h.logger.Warn("webhook signature mismatch, enforcement disabled",
			slog.String("remote_ip", c.RealIP()))
	}

	numMedia := 0
	if raw := strings.TrimSpace(params.Get("NumMedia")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			numMedia = parsed
		}
	}
	status := params.Get("MessageStatus")
	if status == "" {
		status = params.Get("SmsStatus")
	}

	ack, err := h.inbound.HandleEvent(c.Request().Context(), gateway.InboundEvent{
		ProviderID: params.Get("MessageSid"),
		From:       params.Get("From"),
		To:         params.Get("To"),
		Body:       params.Get("Body"),
		NumMedia:   numMedia,
		MediaURL:   params.Get("MediaUrl0"),
		Status:     status,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// A missing team is a setup problem, not a transient failure; a
		// 500 here would make Twilio retry the delivery indefinitely.
		if errors.Is(err, gateway.ErrNoTeamAvailable) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("webhook processing failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process webhook")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"messageId": ack.Message.ID,
		"duplicate": ack.Duplicate,
	})
}

// verifySignature checks X-Twilio-Signature against the full request
// URL and the posted form. Without an auth token nothing can be
// verified and the check fails.
func (h *TwilioWebhookHandler) verifySignature(c echo.Context, params url.Values) bool {
	if h.authToken == "" {
		return false
	}
	signature := c.Request().Header.Get(twilioSignatureHeader)
	if signature == "" {
		return false
	}
	return twilio.ValidateSignature(h.authToken, h.requestURL(c), params, signature)
}

// requestURL rebuilds the URL Twilio signed. The configured public base
// URL wins over whatever host and scheme the proxy forwarded.
func (h *TwilioWebhookHandler) requestURL(c echo.Context) string {
	req := c.Request()
	uri := req.URL.RequestURI()
	if h.publicBaseURL != "" {
		return h.publicBaseURL + uri
	}
	scheme := c.Scheme()
	return scheme + "://" + req.Host + uri
}
