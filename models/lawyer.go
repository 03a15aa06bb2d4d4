package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LawyerSpecialty string

const (
	SpecialtyCobranzas    LawyerSpecialty = "cobranzas"
	SpecialtyEmbargos     LawyerSpecialty = "embargos"
	SpecialtyIntimaciones LawyerSpecialty = "intimaciones"
	SpecialtyGeneral      LawyerSpecialty = "general"
)

// Lawyer is a JCJ Consultings lawyer taking cases from the shared queue.
type Lawyer struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string          `json:"name"`
	Email              string          `json:"email" gorm:"uniqueIndex"`
	Password           string          `json:"-"` // bcrypt hash
	Phone              string          `json:"phone"`
	Specialty          LawyerSpecialty `json:"specialty" gorm:"size:20;default:'general'"`
	IsAvailable        bool            `json:"is_available" gorm:"default:true"`
	IsOnShift          bool            `json:"is_on_shift" gorm:"default:false"`
	MaxConcurrentCases int             `json:"max_concurrent_cases" gorm:"default:5"`
	TotalCasesHandled  int             `json:"total_cases_handled" gorm:"default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (l *Lawyer) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LawyerSchedule is one weekly shift slot for a lawyer.
type LawyerSchedule struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LawyerID  uuid.UUID `json:"lawyer_id" gorm:"type:uuid;index;uniqueIndex:idx_lawyer_day"`
	DayOfWeek int       `json:"day_of_week" gorm:"uniqueIndex:idx_lawyer_day"` // 0 = Monday
	StartTime string    `json:"start_time"`                                    // HH:MM
	EndTime   string    `json:"end_time"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Lawyer       Lawyer `json:"lawyer"`
}
