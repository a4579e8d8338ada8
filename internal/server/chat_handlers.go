package server

import (
	"errors"
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var errHubUnavailable = errors.New("realtime chat requires redis")

type sendMessageRequest struct {
	Receiver uint   `json:"receiver" validate:"required"`
	Message  string `json:"message" validate:"required,max=4000"`
}

func (s *Server) chatRoutes(r fiber.Router) {
	protected := r.Group("", s.AuthRequired())
	protected.Get("/chat_list", s.GetChatList)
	protected.Get("/chat_details/:id", s.GetChatDetails)
	protected.Post("/send_message", middleware.RateLimit(s.redis, 15, time.Minute, "send_message"), s.SendChatMessage)
	protected.Get("/ws", s.WebSocketChatHandler())
}

// GetChatList handles GET /modules/firebase-basic-chat/chat_list
// @Summary One entry per counterpart with the last message, newest first
// @Tags firebase-basic-chat
// @Security BearerAuth
// @Produce json
// @Success 200 {array} service.ChatListEntry
// @Router /modules/firebase-basic-chat/chat_list [get]
func (s *Server) GetChatList(c *fiber.Ctx) error {
	entries, err := s.chatService.ChatList(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(entries)
}

// GetChatDetails handles GET /modules/firebase-basic-chat/chat_details/:id
// @Summary Conversation with one user
// @Tags firebase-basic-chat
// @Security BearerAuth
// @Produce json
// @Param id path int true "Counterpart user ID"
// @Success 200 {object} service.ChatDetails
// @Failure 404 {object} models.ErrorResponse
// @Router /modules/firebase-basic-chat/chat_details/{id} [get]
func (s *Server) GetChatDetails(c *fiber.Ctx) error {
	otherID, err := s.parseID(c)
	if err != nil {
		return nil
	}
	details, err := s.chatService.ChatDetails(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(details)
}

// SendChatMessage handles POST /modules/firebase-basic-chat/send_message
// @Summary Send a message
// @Description Persists the message and notifies both participants over Redis.
// @Tags firebase-basic-chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} service.ChatMessageView
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/firebase-basic-chat/send_message [post]
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	msg, err := s.chatService.SendMessage(c.UserContext(), currentUserID(c), req.Receiver, req.Message)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// WebSocketChatHandler streams the caller's chat notifications.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		listener, err := s.chatHub.Join(userID, conn)
		if err != nil {
			middleware.Logger.Warn("chat websocket rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		listener.Serve()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if s.chatHub == nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewInternalError(errHubUnavailable))
		}
		return upgrade(c)
	}
}
