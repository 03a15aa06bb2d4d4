package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/kafka"
	"github.com/carlospion/AvocadoLegal/models"
)

type capturingProducer struct {
	topic  string
	key    string
	events []kafka.NotificationEvent
}

func (p *capturingProducer) SendMessage(topic string, key string, value interface{}) error {
	p.topic = topic
	p.key = key
	if event, ok := value.(kafka.NotificationEvent); ok {
		p.events = append(p.events, event)
	}
	return nil
}

func newNotificationEnv(t *testing.T) (*gorm.DB, *NotificationService, *capturingProducer) {
	t.Helper()
	db := newTestDB(t)
	producer := &capturingProducer{}
	return db, NewNotificationService(db, producer, "avocadolegal.notifications"), producer
}

func TestCaseAssignedPersistsAndPublishes(t *testing.T) {
	db, notifications, producer := newNotificationEnv(t)

	platform := models.Platform{Name: "prestamito", IsActive: true}
	if err := db.Create(&platform).Error; err != nil {
		t.Fatalf("failed to seed platform: %v", err)
	}
	lawyer := models.Lawyer{Name: "ana", Email: "ana@jcj.example.com"}
	if err := db.Create(&lawyer).Error; err != nil {
		t.Fatalf("failed to seed lawyer: %v", err)
	}
	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationActive}
	if err := db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	notifications.CaseAssigned(&lawyer, &conversation)

	var stored models.Notification
	if err := db.First(&stored, "lawyer_id = ?", lawyer.ID).Error; err != nil {
		t.Fatalf("notification row not written: %v", err)
	}
	if stored.NotificationType != models.NotificationCaseAssigned {
		t.Fatalf("type = %s, want case_assigned", stored.NotificationType)
	}
	if stored.IsSent {
		t.Fatalf("notification marked sent before the consumer saw it")
	}

	if producer.topic != "avocadolegal.notifications" {
		t.Fatalf("published to %q", producer.topic)
	}
	if len(producer.events) != 1 {
		t.Fatalf("got %d events, want 1", len(producer.events))
	}
	event := producer.events[0]
	if event.NotificationID != stored.ID.String() {
		t.Fatalf("event carries wrong notification id")
	}
	if producer.key != lawyer.ID.String() {
		t.Fatalf("events must be keyed by lawyer for per-lawyer ordering, got %q", producer.key)
	}
}

func TestHandleMarksNotificationSent(t *testing.T) {
	db, notifications, producer := newNotificationEnv(t)

	platform := models.Platform{Name: "prestamito", IsActive: true}
	if err := db.Create(&platform).Error; err != nil {
		t.Fatalf("failed to seed platform: %v", err)
	}
	lawyer := models.Lawyer{Name: "ana", Email: "ana@jcj.example.com"}
	if err := db.Create(&lawyer).Error; err != nil {
		t.Fatalf("failed to seed lawyer: %v", err)
	}
	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationActive}
	if err := db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	notifications.CaseClosed(&lawyer, &conversation)

	event := producer.events[0]
	if err := notifications.Handle(context.Background(), &event); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var stored models.Notification
	if err := db.First(&stored, "lawyer_id = ?", lawyer.ID).Error; err != nil {
		t.Fatalf("failed to reload notification: %v", err)
	}
	if !stored.IsSent || stored.SentAt == nil {
		t.Fatalf("round-tripped notification not flagged sent")
	}
}

func TestHandleIgnoresMalformedEvent(t *testing.T) {
	_, notifications, _ := newNotificationEnv(t)

	err := notifications.Handle(context.Background(), &kafka.NotificationEvent{NotificationID: "not-a-uuid"})
	if err != nil {
		t.Fatalf("malformed event must be dropped, not retried: %v", err)
	}
}

func TestMarkReadScopedToLawyer(t *testing.T) {
	db, notifications, _ := newNotificationEnv(t)

	ana := models.Lawyer{Name: "ana", Email: "ana@jcj.example.com"}
	berta := models.Lawyer{Name: "berta", Email: "berta@jcj.example.com"}
	for _, l := range []*models.Lawyer{&ana, &berta} {
		if err := db.Create(l).Error; err != nil {
			t.Fatalf("failed to seed lawyer: %v", err)
		}
	}
	notification := models.Notification{
		LawyerID:         ana.ID,
		NotificationType: models.NotificationReminder,
		Title:            "Recordatorio",
	}
	if err := db.Create(&notification).Error; err != nil {
		t.Fatalf("failed to seed notification: %v", err)
	}

	if err := notifications.MarkRead(berta.ID, notification.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	var stored models.Notification
	if err := db.First(&stored, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("failed to reload notification: %v", err)
	}
	if stored.IsRead {
		t.Fatalf("another lawyer marked the notification read")
	}

	if err := notifications.MarkRead(ana.ID, notification.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if err := db.First(&stored, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("failed to reload notification: %v", err)
	}
	if !stored.IsRead || stored.ReadAt == nil {
		t.Fatalf("owner could not mark the notification read")
	}
}
