package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationNewCase      NotificationType = "new_case"
	NotificationNewMessage   NotificationType = "new_message"
	NotificationCaseAssigned NotificationType = "case_assigned"
	NotificationCaseClosed   NotificationType = "case_closed"
	NotificationReminder     NotificationType = "reminder"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelPush  NotificationChannel = "push"
	ChannelBoth  NotificationChannel = "both"
)

// Notification is the persisted record of something a lawyer should be told
// about. Actual email/push delivery happens downstream off the Kafka topic.
type Notification struct {
	ID               uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	LawyerID         uuid.UUID           `json:"lawyer_id" gorm:"type:uuid;index"`
	NotificationType NotificationType    `json:"notification_type" gorm:"size:20"`
	Channel          NotificationChannel `json:"channel" gorm:"size:10;default:'both'"`
	Title            string              `json:"title"`
	Message          string              `json:"message" gorm:"type:text"`
	ConversationID   *uuid.UUID          `json:"conversation_id" gorm:"type:uuid"`
	IsRead           bool                `json:"is_read" gorm:"default:false"`
	IsSent           bool                `json:"is_sent" gorm:"default:false"`
	CreatedAt        time.Time           `json:"created_at"`
	SentAt           *time.Time          `json:"sent_at"`
	ReadAt           *time.Time          `json:"read_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
