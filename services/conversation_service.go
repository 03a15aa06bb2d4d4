package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/models"
)

var (
	ErrAlreadyClosed   = errors.New("conversation already closed")
	ErrNotCaseOwner    = errors.New("conversation belongs to another lawyer")
	ErrEmptyContent    = errors.New("content is required")
	ErrUnknownSender   = errors.New("unknown sender type")
	ErrMessageNotFound = errors.New("message not found")
)

// ChatNotifier fans a persisted message out to the conversation's live
// subscribers. Best effort: persistence never rolls back on broadcast failure.
type ChatNotifier interface {
	NotifyMessage(conversationID uuid.UUID, message *models.Message)
}

// ConversationService owns the case lifecycle: intake, messaging transitions
// and closing.
type ConversationService struct {
	db            *gorm.DB
	cfg           config.ConversationsConfig
	platforms     *PlatformService
	assignment    *AssignmentService
	notifications *NotificationService
	chat          ChatNotifier
}

func NewConversationService(db *gorm.DB, cfg config.ConversationsConfig,
	platforms *PlatformService, assignment *AssignmentService,
	notifications *NotificationService) *ConversationService {
	return &ConversationService{
		db:            db,
		cfg:           cfg,
		platforms:     platforms,
		assignment:    assignment,
		notifications: notifications,
	}
}

func (s *ConversationService) SetChatNotifier(chat ChatNotifier) {
	s.chat = chat
}

type CreateConversationInput struct {
	PlatformUserID     *uuid.UUID `json:"platform_user_id"`
	ClientID           *uuid.UUID `json:"client_id"`
	LoanID             *uuid.UUID `json:"loan_id"`
	Subject            string     `json:"subject"`
	ProcedureRequested string     `json:"procedure_requested"`
	PageURL            string     `json:"page_url"`
	ClientData         ClientData `json:"client_data"`
}

// Create is intake: conversation starts pending with a welcome message, then
// auto-assignment gets one synchronous shot at binding a lawyer.
func (s *ConversationService) Create(platform *models.Platform, input CreateConversationInput) (*models.Conversation, error) {
	clientID := input.ClientID
	if clientID == nil && !input.ClientData.Empty() {
		client, err := s.platforms.UpsertClient(platform.ID, input.ClientData)
		if err != nil {
			return nil, err
		}
		clientID = &client.ID
	}

	conversation := models.Conversation{
		PlatformID:         platform.ID,
		PlatformUserID:     input.PlatformUserID,
		ClientID:           clientID,
		LoanID:             input.LoanID,
		Status:             models.ConversationPending,
		Subject:            input.Subject,
		ProcedureRequested: input.ProcedureRequested,
		PageURL:            input.PageURL,
	}
	if err := s.db.Create(&conversation).Error; err != nil {
		return nil, err
	}

	welcome := models.NewSystemMessage(conversation.ID, models.WelcomeMessage)
	if err := s.db.Create(welcome).Error; err != nil {
		return nil, err
	}

	if err := s.assignment.AutoAssign(&conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *ConversationService) Get(platformID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Preload("Client").Preload("Lawyer").
		Where("id = ? AND platform_id = ?", conversationID, platformID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (s *ConversationService) List(platformID uuid.UUID) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.Where("platform_id = ?", platformID).
		Order("created_at DESC").Find(&conversations).Error
	return conversations, err
}

// Messages returns the full history in canonical (persistence) order.
func (s *ConversationService) Messages(conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").Find(&messages).Error
	return messages, err
}

type SendMessageInput struct {
	SenderType  models.SenderType `json:"sender_type"`
	SenderID    *uuid.UUID        `json:"sender_id"`
	SenderName  string            `json:"sender_name"`
	Content     string            `json:"content"`
	Attachments datatypes.JSON    `json:"attachments"`
}

// SendMessage persists the message, applies the status transition for the
// sender side, then broadcasts to live subscribers.
func (s *ConversationService) SendMessage(conversationID uuid.UUID, input SendMessageInput) (*models.Message, error) {
	if input.Content == "" {
		return nil, ErrEmptyContent
	}
	switch input.SenderType {
	case models.SenderPlatformUser, models.SenderLawyer, models.SenderSystem:
	default:
		return nil, ErrUnknownSender
	}

	var conversation models.Conversation
	if err := s.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	message := models.Message{
		ConversationID:  conversationID,
		SenderType:      input.SenderType,
		SenderID:        input.SenderID,
		SenderName:      input.SenderName,
		Content:         input.Content,
		Attachments:     input.Attachments,
		IsSystemMessage: input.SenderType == models.SenderSystem,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if next, ok := s.nextStatus(conversation.Status, input.SenderType); ok {
		updates["status"] = next
	}
	if err := s.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).Updates(updates).Error; err != nil {
		return nil, err
	}

	if s.notifications != nil && input.SenderType == models.SenderPlatformUser && conversation.LawyerID != nil {
		s.notifications.NewMessage(*conversation.LawyerID, &conversation)
	}
	if s.chat != nil {
		s.chat.NotifyMessage(conversationID, &message)
	}
	return &message, nil
}

// nextStatus implements the messaging side of the state machine. A lawyer
// reply always hands the turn to the client. The symmetric client-side
// transition is gated behind config because the legacy behavior left the
// status alone on client replies.
func (s *ConversationService) nextStatus(current models.ConversationStatus, sender models.SenderType) (models.ConversationStatus, bool) {
	if current == models.ConversationClosed || current == models.ConversationResolved {
		return current, false
	}
	switch sender {
	case models.SenderLawyer:
		return models.ConversationWaitingClient, true
	case models.SenderPlatformUser:
		if s.cfg.ClientReplySetsWaiting &&
			(current == models.ConversationActive || current == models.ConversationWaitingClient) {
			return models.ConversationWaitingLawyer, true
		}
	}
	return current, false
}

// GetForLawyer fetches a conversation only if the lawyer owns it.
func (s *ConversationService) GetForLawyer(conversationID, lawyerID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Preload("Client").Preload("Platform").
		Where("id = ? AND lawyer_id = ?", conversationID, lawyerID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

// Close terminates a case. Only the owning lawyer may close, closing twice is
// an error, and the lawyer's lifetime counter moves exactly once.
func (s *ConversationService) Close(conversationID, lawyerID uuid.UUID, notes string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&conversation, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}
		if conversation.LawyerID == nil || *conversation.LawyerID != lawyerID {
			return ErrNotCaseOwner
		}
		if conversation.Status == models.ConversationClosed {
			return ErrAlreadyClosed
		}

		now := time.Now()
		conversation.Status = models.ConversationClosed
		conversation.ResolutionNotes = notes
		conversation.ClosedAt = &now
		if err := tx.Model(&models.Conversation{}).Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"status":           models.ConversationClosed,
				"resolution_notes": notes,
				"closed_at":        &now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Lawyer{}).Where("id = ?", lawyerID).
			UpdateColumn("total_cases_handled", gorm.Expr("total_cases_handled + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		var lawyer models.Lawyer
		if err := s.db.First(&lawyer, "id = ?", lawyerID).Error; err == nil {
			s.notifications.CaseClosed(&lawyer, &conversation)
		}
	}
	return &conversation, nil
}

// MarkMessageRead flips the read flag; everything else about a message is
// immutable.
func (s *ConversationService) MarkMessageRead(messageID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Message{}).Where("id = ?", messageID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
