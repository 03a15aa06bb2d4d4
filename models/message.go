package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SenderType string

const (
	SenderPlatformUser SenderType = "platform_user"
	SenderLawyer       SenderType = "lawyer"
	SenderSystem       SenderType = "system"
)

// Message is one entry in a conversation. Insertion order is the canonical
// order; a message is immutable once written except for the read flag.
type Message struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID  uuid.UUID      `json:"conversation_id" gorm:"type:uuid;index"`
	SenderType      SenderType     `json:"sender_type" gorm:"size:20"`
	SenderID        *uuid.UUID     `json:"sender_id" gorm:"type:uuid"`
	SenderName      string         `json:"sender_name"`
	Content         string         `json:"content" gorm:"type:text"`
	Attachments     datatypes.JSON `json:"attachments,omitempty"`
	IsRead          bool           `json:"is_read" gorm:"default:false"`
	IsSystemMessage bool           `json:"is_system_message" gorm:"default:false"`
	SentAt          time.Time      `json:"sent_at" gorm:"index"`
	ReadAt          *time.Time     `json:"read_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	return nil
}

const (
	SystemSenderName = "Sistema"
	WelcomeMessage   = "Hola! Ya tenemos los datos basicos del prestamo. Cual es tu consulta y que procedimiento te gustaria iniciar?"
)

// NewSystemMessage builds (but does not persist) a system message for a
// conversation.
func NewSystemMessage(conversationID uuid.UUID, content string) *Message {
	return &Message{
		ConversationID:  conversationID,
		SenderType:      SenderSystem,
		SenderName:      SystemSenderName,
		Content:         content,
		IsSystemMessage: true,
	}
}
