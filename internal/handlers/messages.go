package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/gateway"
	"github.com/relaydesk/relaydesk/internal/messages"
)

// MessagesHandler serves outbound sends and per-contact message history.
type MessagesHandler struct {
	dispatcher *gateway.Dispatcher
	service    *messages.Service
	logger     *slog.Logger
}

func NewMessagesHandler(log *slog.Logger, dispatcher *gateway.Dispatcher, service *messages.Service) *MessagesHandler {
	return &MessagesHandler{
		dispatcher: dispatcher,
		service:    service,
		logger:     log.With(slog.String("handler", "messages")),
	}
}

func (h *MessagesHandler) Register(e *echo.Echo) {
	e.POST("/api/messages/send", h.Send)
	e.GET("/api/messages", h.List)
}

// Send dispatches one outbound message through the provider adapter for
// the requested channel type.
func (h *MessagesHandler) Send(c echo.Context) error {
	var req gateway.DispatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.ContactID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "contactId is required")
	}

	res, err := h.dispatcher.Dispatch(c.Request().Context(), req)
	if err != nil {
		return mapDispatchError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": res.Message,
		"result":  res.Provider,
	})
}

// List returns a contact's messages, newest first.
func (h *MessagesHandler) List(c echo.Context) error {
	contactID := strings.TrimSpace(c.QueryParam("contactId"))
	if contactID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "contactId is required")
	}
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = parsed
	}

	items, err := h.service.ListByContact(c.Request().Context(), contactID, limit)
	if err != nil {
		h.logger.Error("list messages", slog.String("contact_id", contactID), slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch messages")
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// mapDispatchError translates the gateway error taxonomy onto HTTP
// statuses for the dashboard.
func mapDispatchError(err error) error {
	switch {
	case errors.Is(err, gateway.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrContactNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	case errors.Is(err, gateway.ErrNoAddressForChannel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrUnsupportedChannel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "provider timed out")
	case errors.Is(err, gateway.ErrSendFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}
}
