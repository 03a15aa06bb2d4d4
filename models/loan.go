package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LoanStatus string

const (
	LoanStatusAlDia          LoanStatus = "al_dia"
	LoanStatusRetraso        LoanStatus = "retraso"
	LoanStatusMora           LoanStatus = "mora"
	LoanStatusVencido        LoanStatus = "vencido"
	LoanStatusCobranza       LoanStatus = "cobranza"
	LoanStatusLegal          LoanStatus = "legal"
	LoanStatusReestructurado LoanStatus = "reestructurado"
	LoanStatusSaldado        LoanStatus = "saldado"
)

// Loan mirrors a loan record on the tenant platform. The legal team reads it,
// it is never the system of record.
type Loan struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ClientID       uuid.UUID      `json:"client_id" gorm:"type:uuid;index"`
	Client         *Client        `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	ExternalID     string         `json:"external_id"`
	Amount         float64        `json:"amount"`
	Balance        float64        `json:"balance"`
	Currency       string         `json:"currency" gorm:"size:3;default:'DOP'"`
	Status         LoanStatus     `json:"status" gorm:"size:20;default:'retraso'"`
	DaysOverdue    int            `json:"days_overdue" gorm:"default:0"`
	PaymentHistory datatypes.JSON `json:"payment_history,omitempty"`
	FullData       datatypes.JSON `json:"full_data,omitempty"`
	LoanDate       *time.Time     `json:"loan_date"`
	DueDate        *time.Time     `json:"due_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

var irregularLoanStatuses = []LoanStatus{
	LoanStatusRetraso, LoanStatusMora, LoanStatusVencido,
	LoanStatusCobranza, LoanStatusLegal,
}

// IsIrregular reports whether the loan is in a state that may need legal
// action.
func (l *Loan) IsIrregular() bool {
	for _, s := range irregularLoanStatuses {
		if l.Status == s {
			return true
		}
	}
	return false
}
