package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

// ConversationHandler is the tenant-facing conversation API.
type ConversationHandler struct {
	conversationService *services.ConversationService
}

func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Create is conversation intake: welcome message plus one synchronous
// auto-assignment attempt happen before the response goes out.
func (h *ConversationHandler) Create(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	var input services.CreateConversationInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	conversation, err := h.conversationService.Create(platform, input)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create conversation"})
	}

	resp := map[string]interface{}{
		"id":         conversation.ID,
		"status":     conversation.Status,
		"subject":    conversation.Subject,
		"created_at": conversation.CreatedAt,
		"message":    "Conversation created successfully",
	}
	if conversation.ClientID != nil {
		resp["client_id"] = conversation.ClientID
	} else {
		resp["client_id"] = nil
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *ConversationHandler) List(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	conversations, err := h.conversationService.List(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversations"})
	}
	return c.JSON(http.StatusOK, conversations)
}

func (h *ConversationHandler) Get(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	conversation, err := h.conversationService.Get(platform.ID, conversationID)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversation"})
	}
	return c.JSON(http.StatusOK, conversation)
}

// Messages returns the full conversation history in persistence order.
func (h *ConversationHandler) Messages(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	// Tenant scoping first: messages of another platform's conversation are a 404.
	if _, err := h.conversationService.Get(platform.ID, conversationID); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversation"})
	}
	messages, err := h.conversationService.Messages(conversationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	if _, err := h.conversationService.Get(platform.ID, conversationID); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversation"})
	}

	var input services.SendMessageInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if input.SenderType == "" {
		input.SenderType = models.SenderPlatformUser
	}

	message, err := h.conversationService.SendMessage(conversationID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent), errors.Is(err, services.ErrUnknownSender):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
		}
	}
	return c.JSON(http.StatusCreated, message)
}

// MarkMessageRead flips a message's read flag.
func (h *ConversationHandler) MarkMessageRead(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid message id"})
	}
	if _, err := h.conversationService.Get(platform.ID, conversationID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}
	if err := h.conversationService.MarkMessageRead(messageID); err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update message"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
