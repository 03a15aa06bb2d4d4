package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/models"
)

var (
	ErrPlatformNotFound = errors.New("platform not found")
	ErrInvalidAPIKey    = errors.New("invalid api key")
)

type PlatformService struct {
	db *gorm.DB
}

func NewPlatformService(db *gorm.DB) *PlatformService {
	return &PlatformService{db: db}
}

type RegisterPlatformInput struct {
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (in *RegisterPlatformInput) Validate() map[string]string {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "name is required"
	}
	if in.Domain == "" {
		fields["domain"] = "domain is required"
	}
	return fields
}

// Register creates a tenant and its API key. The key is returned exactly once
// here; afterwards only RegenerateAPIKey can produce a readable key.
func (s *PlatformService) Register(input RegisterPlatformInput) (*models.Platform, error) {
	platform := models.Platform{
		Name:         input.Name,
		Domain:       input.Domain,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		IsActive:     true,
	}
	if err := s.db.Create(&platform).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

// Authenticate resolves an API key to an active tenant. Inactive platforms are
// indistinguishable from unknown keys.
func (s *PlatformService) Authenticate(apiKey string) (*models.Platform, error) {
	var platform models.Platform
	err := s.db.Where("api_key = ? AND is_active = ?", apiKey, true).First(&platform).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}
	return &platform, nil
}

func (s *PlatformService) RegenerateAPIKey(platformID uuid.UUID) (string, error) {
	key := models.GenerateAPIKey()
	result := s.db.Model(&models.Platform{}).Where("id = ?", platformID).
		Update("api_key", key)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrPlatformNotFound
	}
	return key, nil
}

func (s *PlatformService) ListUsers(platformID uuid.UUID) ([]models.PlatformUser, error) {
	var users []models.PlatformUser
	err := s.db.Where("platform_id = ?", platformID).
		Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *PlatformService) CreateUser(user *models.PlatformUser) error {
	return s.db.Create(user).Error
}

// ClientData is the scraped client payload a platform may attach to intake.
type ClientData struct {
	Name   string `json:"name"`
	Cedula string `json:"cedula"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

func (d ClientData) Empty() bool {
	return d.Name == "" && d.Cedula == ""
}

// UpsertClient matches on platform+cedula and refreshes contact data when the
// client is seen again.
func (s *PlatformService) UpsertClient(platformID uuid.UUID, data ClientData) (*models.Client, error) {
	var client models.Client
	err := s.db.Where("platform_id = ? AND cedula = ?", platformID, data.Cedula).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := data.Name
		if name == "" {
			name = "Cliente Web"
		}
		client = models.Client{
			PlatformID: platformID,
			Name:       name,
			Cedula:     data.Cedula,
			Phone:      data.Phone,
			Email:      data.Email,
			ExternalID: fmt.Sprintf("web_%d", time.Now().UnixNano()),
		}
		if err := s.db.Create(&client).Error; err != nil {
			return nil, err
		}
		return &client, nil
	} else if err != nil {
		return nil, err
	}

	if data.Name != "" {
		client.Name = data.Name
		if data.Phone != "" {
			client.Phone = data.Phone
		}
		if data.Email != "" {
			client.Email = data.Email
		}
		if err := s.db.Save(&client).Error; err != nil {
			return nil, err
		}
	}
	return &client, nil
}

func (s *PlatformService) ListClients(platformID uuid.UUID) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.Where("platform_id = ?", platformID).
		Order("created_at DESC").Find(&clients).Error
	return clients, err
}

func (s *PlatformService) GetClient(platformID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.Where("id = ? AND platform_id = ?", clientID, platformID).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *PlatformService) CreateClient(client *models.Client) error {
	return s.db.Create(client).Error
}
