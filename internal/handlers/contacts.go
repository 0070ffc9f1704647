package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/contacts"
)

// ContactsHandler serves the inbox sidebar contact list.
type ContactsHandler struct {
	service *contacts.Service
	logger  *slog.Logger
}

func NewContactsHandler(log *slog.Logger, service *contacts.Service) *ContactsHandler {
	return &ContactsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "contacts")),
	}
}

func (h *ContactsHandler) Register(e *echo.Echo) {
	e.GET("/api/contacts", h.List)
}

// List returns all contacts with their message counts, newest first.
func (h *ContactsHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list contacts", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch contacts")
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
