package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

// LawyerHandler is the dashboard API: login, caseload, the shared queue and
// the case actions.
type LawyerHandler struct {
	authService         *services.AuthService
	lawyerService       *services.LawyerService
	assignmentService   *services.AssignmentService
	conversationService *services.ConversationService
	notificationService *services.NotificationService
}

func NewLawyerHandler(authService *services.AuthService, lawyerService *services.LawyerService,
	assignmentService *services.AssignmentService, conversationService *services.ConversationService,
	notificationService *services.NotificationService) *LawyerHandler {
	return &LawyerHandler{
		authService:         authService,
		lawyerService:       lawyerService,
		assignmentService:   assignmentService,
		conversationService: conversationService,
		notificationService: notificationService,
	}
}

func (h *LawyerHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	lawyer, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	tokens, err := h.authService.GenerateTokens(lawyer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate tokens"})
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *LawyerHandler) RefreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	claims, err := h.authService.ValidateToken(req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}
	lawyer, err := h.lawyerService.Get(claims.LawyerID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}
	tokens, err := h.authService.GenerateTokens(lawyer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate tokens"})
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *LawyerHandler) Dashboard(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	stats, err := h.lawyerService.Dashboard(lawyer.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load dashboard"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *LawyerHandler) Caseload(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	conversations, err := h.lawyerService.Caseload(lawyer.ID, c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversations"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"total":         len(conversations),
	})
}

func (h *LawyerHandler) ConversationDetail(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	conversation, err := h.conversationService.GetForLawyer(conversationID, lawyer.ID)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversation"})
	}
	messages, err := h.conversationService.Messages(conversationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation": conversation,
		"messages":     messages,
	})
}

// Queue lists every unassigned pending case, newest first.
func (h *LawyerHandler) Queue(c echo.Context) error {
	conversations, err := h.lawyerService.UnassignedQueue(0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch queue"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases": conversations,
		"total": len(conversations),
	})
}

// Claim binds an unassigned case to the calling lawyer. Losing a concurrent
// claim race is a conflict, not a retry.
func (h *LawyerHandler) Claim(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}

	conversation, err := h.assignmentService.Claim(conversationID, lawyer.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound), errors.Is(err, gorm.ErrRecordNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		case errors.Is(err, services.ErrCannotAcceptCase):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot accept more cases"})
		case errors.Is(err, services.ErrAlreadyAssigned):
			return c.JSON(http.StatusConflict, map[string]string{"error": "already assigned"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to claim case"})
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"conversation_id": conversation.ID,
	})
}

func (h *LawyerHandler) SendMessage(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	if _, err := h.conversationService.GetForLawyer(conversationID, lawyer.ID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	message, err := h.conversationService.SendMessage(conversationID, services.SendMessageInput{
		SenderType: models.SenderLawyer,
		SenderID:   &lawyer.ID,
		SenderName: lawyer.Name,
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// Close terminates a case with resolution notes.
func (h *LawyerHandler) Close(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	conversation, err := h.conversationService.Close(conversationID, lawyer.ID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		case errors.Is(err, services.ErrNotCaseOwner):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "conversation belongs to another lawyer"})
		case errors.Is(err, services.ErrAlreadyClosed):
			return c.JSON(http.StatusConflict, map[string]string{"error": "already closed"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to close case"})
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"closed_at": conversation.ClosedAt,
	})
}

func (h *LawyerHandler) ToggleAvailability(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	available, err := h.lawyerService.ToggleAvailability(lawyer.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update availability"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"is_available": available,
	})
}

func (h *LawyerHandler) ToggleShift(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	onShift, err := h.lawyerService.ToggleShift(lawyer.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update shift"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"is_on_shift": onShift,
	})
}

func (h *LawyerHandler) Notifications(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	notifications, err := h.notificationService.ListForLawyer(lawyer.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch notifications"})
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *LawyerHandler) MarkNotificationRead(c echo.Context) error {
	lawyer := custommiddleware.LawyerFrom(c)
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
	}
	if err := h.notificationService.MarkRead(lawyer.ID, notificationID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update notification"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
