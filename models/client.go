package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Client is a loan debtor pushed in (or scraped) by a tenant platform.
type Client struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	PlatformID     uuid.UUID      `json:"platform_id" gorm:"type:uuid;index"`
	ExternalID     string         `json:"external_id"`
	Name           string         `json:"name"`
	Cedula         string         `json:"cedula" gorm:"index"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email"`
	Address        string         `json:"address"`
	AdditionalData datatypes.JSON `json:"additional_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
