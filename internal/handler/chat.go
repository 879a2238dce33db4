package handler

import (
	"lounge-portal/internal/dto"
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/realtime"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Subscriber attaches a websocket connection to realtime topics.
type Subscriber interface {
	Subscribe(conn realtime.Conn, topics ...string) func()
}

type ChatHandler struct {
	chatService service.ChatService
	hub         Subscriber
	upgrader    websocket.Upgrader
	log         *logrus.Logger
}

func NewChatHandler(chatService service.ChatService, hub Subscriber, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *ChatHandler) ListRooms(c echo.Context) error {
	ctx := c.Request().Context()

	rooms, err := h.chatService.ListRooms(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rooms)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()

	messages, err := h.chatService.ListMessages(ctx, middleware.IdentityFrom(c), c.Param("roomId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	message, err := h.chatService.PostMessage(ctx, middleware.IdentityFrom(c), c.Param("roomId"), req.Body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, message)
}

// ChatSocket streams a room and accepts {"body": "..."} frames as posts.
func (h *ChatHandler) ChatSocket(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.IdentityFrom(c)

	room, err := h.chatService.JoinRoom(ctx, identity, c.Param("roomId"))
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the request
		h.log.WithError(err).Debug("websocket upgrade")
		return nil
	}

	unsubscribe := h.hub.Subscribe(conn, realtime.RoomTopic(room.ID))
	defer unsubscribe()

	for {
		var req dto.PostMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			return nil
		}

		if _, err := h.chatService.PostMessage(ctx, identity, room.ID, req.Body); err != nil {
			h.log.WithError(err).WithField("room_id", room.ID).Warn("drop chat frame")
		}
	}
}

// NotificationSocket pushes the caller's user and role notifications.
func (h *ChatHandler) NotificationSocket(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if !identity.HasUser() {
		return service.ErrUnauthenticated
	}

	topics := []string{realtime.UserTopic(identity.UserID)}
	if identity.IsAuthenticated() && identity.Role != "" {
		topics = append(topics, realtime.RoleTopic(identity.Role))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade")
		return nil
	}

	unsubscribe := h.hub.Subscribe(conn, topics...)
	defer unsubscribe()

	// inbound frames are ignored, reading only detects the close
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return nil
		}
	}
}
