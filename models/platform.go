package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Platform is an external SaaS tenant. Every platform authenticates with its
// own API key and only ever sees its own users, clients, loans and
// conversations.
type Platform struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name"`
	APIKey       string         `json:"-" gorm:"uniqueIndex;size:64"`
	Domain       string         `json:"domain"`
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Settings     datatypes.JSON `json:"settings,omitempty"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (p *Platform) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.APIKey == "" {
		p.APIKey = GenerateAPIKey()
	}
	return nil
}

// GenerateAPIKey returns a new platform credential, avl_ plus 32 random bytes
// url-safe encoded.
func GenerateAPIKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "avl_" + base64.RawURLEncoding.EncodeToString(buf)
}

// PlatformUser is a loan manager on the tenant side, identified by the
// external id the platform uses for them.
type PlatformUser struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PlatformID uuid.UUID `json:"platform_id" gorm:"type:uuid;index;uniqueIndex:idx_platform_external"`
	ExternalID string    `json:"external_id" gorm:"uniqueIndex:idx_platform_external"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *PlatformUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
