package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationStatus string

const (
	ConversationPending       ConversationStatus = "pending"
	ConversationActive        ConversationStatus = "active"
	ConversationWaitingClient ConversationStatus = "waiting_client"
	ConversationWaitingLawyer ConversationStatus = "waiting_lawyer"
	ConversationResolved      ConversationStatus = "resolved"
	ConversationClosed        ConversationStatus = "closed"
)

// ActiveCaseStatuses are the statuses that count against a lawyer's
// concurrent-case cap.
var ActiveCaseStatuses = []ConversationStatus{ConversationActive, ConversationPending}

// CaseloadStatuses are what the dashboard treats as an open case.
var CaseloadStatuses = []ConversationStatus{
	ConversationActive, ConversationPending, ConversationWaitingClient,
}

// Conversation is a support case thread between a platform client and a
// lawyer. ClosedAt is set iff Status is closed; rows are never deleted.
type Conversation struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	PlatformID         uuid.UUID          `json:"platform_id" gorm:"type:uuid;index"`
	Platform           *Platform          `json:"platform,omitempty" gorm:"foreignKey:PlatformID"`
	PlatformUserID     *uuid.UUID         `json:"platform_user_id" gorm:"type:uuid"`
	ClientID           *uuid.UUID         `json:"client_id" gorm:"type:uuid"`
	Client             *Client            `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	LoanID             *uuid.UUID         `json:"loan_id" gorm:"type:uuid"`
	LawyerID           *uuid.UUID         `json:"lawyer_id" gorm:"type:uuid;index"`
	Lawyer             *Lawyer            `json:"lawyer,omitempty" gorm:"foreignKey:LawyerID"`
	Status             ConversationStatus `json:"status" gorm:"size:20;default:'pending';index"`
	Subject            string             `json:"subject"`
	ProcedureRequested string             `json:"procedure_requested"`
	ResolutionNotes    string             `json:"resolution_notes"`
	PageURL            string             `json:"page_url"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	ClosedAt           *time.Time         `json:"closed_at"`
	Messages           []Message          `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
