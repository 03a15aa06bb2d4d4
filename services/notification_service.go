package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/kafka"
	"github.com/carlospion/AvocadoLegal/models"
)

// EventProducer is the outbound event stream. Satisfied by kafka.Producer;
// nil means events are only persisted, not published.
type EventProducer interface {
	SendMessage(topic string, key string, value interface{}) error
}

// NotificationService records notifications for lawyers and emits the matching
// event. Publishing is best effort: a broker failure never fails the
// transition that triggered the notification.
type NotificationService struct {
	db       *gorm.DB
	producer EventProducer
	topic    string
}

func NewNotificationService(db *gorm.DB, producer EventProducer, topic string) *NotificationService {
	return &NotificationService{db: db, producer: producer, topic: topic}
}

// NewCase tells a lawyer an unassigned case is waiting in the queue. Recorded
// for every on-shift lawyer when auto-assignment finds nobody eligible.
func (s *NotificationService) NewCase(lawyer *models.Lawyer, conversation *models.Conversation) {
	s.record(&models.Notification{
		LawyerID:         lawyer.ID,
		NotificationType: models.NotificationNewCase,
		Channel:          models.ChannelPush,
		Title:            "Nuevo caso en cola",
		Message:          fmt.Sprintf("El caso %s espera un abogado.", conversation.ID),
		ConversationID:   &conversation.ID,
	}, conversation.PlatformID)
}

func (s *NotificationService) CaseAssigned(lawyer *models.Lawyer, conversation *models.Conversation) {
	s.record(&models.Notification{
		LawyerID:         lawyer.ID,
		NotificationType: models.NotificationCaseAssigned,
		Channel:          models.ChannelBoth,
		Title:            "Caso asignado",
		Message:          fmt.Sprintf("Se te ha asignado el caso %s.", conversation.ID),
		ConversationID:   &conversation.ID,
	}, conversation.PlatformID)
}

func (s *NotificationService) CaseClosed(lawyer *models.Lawyer, conversation *models.Conversation) {
	s.record(&models.Notification{
		LawyerID:         lawyer.ID,
		NotificationType: models.NotificationCaseClosed,
		Channel:          models.ChannelEmail,
		Title:            "Caso cerrado",
		Message:          fmt.Sprintf("El caso %s ha sido cerrado.", conversation.ID),
		ConversationID:   &conversation.ID,
	}, conversation.PlatformID)
}

func (s *NotificationService) NewMessage(lawyerID uuid.UUID, conversation *models.Conversation) {
	s.record(&models.Notification{
		LawyerID:         lawyerID,
		NotificationType: models.NotificationNewMessage,
		Channel:          models.ChannelPush,
		Title:            "Nuevo mensaje",
		Message:          fmt.Sprintf("Nuevo mensaje en el caso %s.", conversation.ID),
		ConversationID:   &conversation.ID,
	}, conversation.PlatformID)
}

func (s *NotificationService) record(n *models.Notification, platformID uuid.UUID) {
	if err := s.db.Create(n).Error; err != nil {
		log.Printf("Failed to save notification: %v", err)
		return
	}
	if s.producer == nil {
		return
	}
	event := kafka.NotificationEvent{
		NotificationID:   n.ID.String(),
		NotificationType: string(n.NotificationType),
		Channel:          string(n.Channel),
		LawyerID:         n.LawyerID.String(),
		Title:            n.Title,
		Message:          n.Message,
		PlatformID:       platformID.String(),
		CreatedAt:        time.Now(),
	}
	if n.ConversationID != nil {
		event.ConversationID = n.ConversationID.String()
	}
	if err := s.producer.SendMessage(s.topic, event.LawyerID, event); err != nil {
		log.Printf("Failed to publish notification event: %v", err)
	}
}

func (s *NotificationService) ListForLawyer(lawyerID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Where("lawyer_id = ?", lawyerID).
		Order("created_at DESC").Limit(50).Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) MarkRead(lawyerID, notificationID uuid.UUID) error {
	now := time.Now()
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND lawyer_id = ?", notificationID, lawyerID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

// Handle implements kafka.EventHandler: once the event round-trips through the
// broker the row is flagged as sent.
func (s *NotificationService) Handle(ctx context.Context, event *kafka.NotificationEvent) error {
	id, err := uuid.Parse(event.NotificationID)
	if err != nil {
		return nil
	}
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_sent": true, "sent_at": &now}).Error
}
