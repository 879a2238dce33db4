package handler

import (
	"lounge-portal/internal/dto"
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	unreadOnly := c.QueryParam("unread") == "true"

	notifications, unread, err := h.notificationService.List(ctx, middleware.IdentityFrom(c), unreadOnly)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.NotificationListResponse{
		Unread:        unread,
		Notifications: notifications,
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.notificationService.MarkRead(ctx, middleware.IdentityFrom(c), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) Send(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	notification, err := h.notificationService.Send(ctx, middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, notification)
}
