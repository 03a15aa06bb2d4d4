package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/models"
)

var ErrLawyerNotFound = errors.New("lawyer not found")

// LawyerService is the read/query layer behind the lawyer dashboard plus the
// availability toggles.
type LawyerService struct {
	db *gorm.DB
}

func NewLawyerService(db *gorm.DB) *LawyerService {
	return &LawyerService{db: db}
}

func (s *LawyerService) Get(lawyerID uuid.UUID) (*models.Lawyer, error) {
	var lawyer models.Lawyer
	if err := s.db.First(&lawyer, "id = ?", lawyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLawyerNotFound
		}
		return nil, err
	}
	return &lawyer, nil
}

type DashboardStats struct {
	Lawyer              *models.Lawyer        `json:"lawyer"`
	ActiveCases         int64                 `json:"active_cases"`
	PendingCases        int64                 `json:"pending_cases"`
	ResolvedToday       int64                 `json:"resolved_today"`
	TotalResolved       int                   `json:"total_resolved"`
	RecentConversations []models.Conversation `json:"recent_conversations"`
	UnassignedCases     []models.Conversation `json:"unassigned_cases"`
}

func (s *LawyerService) Dashboard(lawyerID uuid.UUID) (*DashboardStats, error) {
	lawyer, err := s.Get(lawyerID)
	if err != nil {
		return nil, err
	}

	stats := DashboardStats{Lawyer: lawyer, TotalResolved: lawyer.TotalCasesHandled}

	if err := s.db.Model(&models.Conversation{}).
		Where("lawyer_id = ? AND status IN ?", lawyerID, models.CaseloadStatuses).
		Count(&stats.ActiveCases).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Conversation{}).
		Where("lawyer_id = ? AND status = ?", lawyerID, models.ConversationPending).
		Count(&stats.PendingCases).Error; err != nil {
		return nil, err
	}

	// local calendar day, not a UTC 24h bucket
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.Conversation{}).
		Where("lawyer_id = ? AND status = ? AND closed_at >= ?",
			lawyerID, models.ConversationClosed, startOfDay).
		Count(&stats.ResolvedToday).Error; err != nil {
		return nil, err
	}

	if err := s.db.Where("lawyer_id = ?", lawyerID).
		Order("updated_at DESC").Limit(5).
		Find(&stats.RecentConversations).Error; err != nil {
		return nil, err
	}

	unassigned, err := s.UnassignedQueue(10)
	if err != nil {
		return nil, err
	}
	stats.UnassignedCases = unassigned

	return &stats, nil
}

// Caseload lists a lawyer's conversations by bucket: "active" covers the open
// statuses, "closed" the terminal one.
func (s *LawyerService) Caseload(lawyerID uuid.UUID, bucket string) ([]models.Conversation, error) {
	query := s.db.Preload("Client").Where("lawyer_id = ?", lawyerID)
	switch bucket {
	case "", "active":
		query = query.Where("status IN ?", models.CaseloadStatuses)
	case "closed":
		query = query.Where("status = ?", models.ConversationClosed)
	}
	var conversations []models.Conversation
	err := query.Order("updated_at DESC").Find(&conversations).Error
	return conversations, err
}

// UnassignedQueue is the shared queue of pending cases nobody owns yet, newest
// first. limit <= 0 returns everything.
func (s *LawyerService) UnassignedQueue(limit int) ([]models.Conversation, error) {
	query := s.db.Preload("Client").
		Where("lawyer_id IS NULL AND status = ?", models.ConversationPending).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var conversations []models.Conversation
	err := query.Find(&conversations).Error
	return conversations, err
}

func (s *LawyerService) ToggleAvailability(lawyerID uuid.UUID) (bool, error) {
	lawyer, err := s.Get(lawyerID)
	if err != nil {
		return false, err
	}
	lawyer.IsAvailable = !lawyer.IsAvailable
	if err := s.db.Model(lawyer).Update("is_available", lawyer.IsAvailable).Error; err != nil {
		return false, err
	}
	return lawyer.IsAvailable, nil
}

func (s *LawyerService) ToggleShift(lawyerID uuid.UUID) (bool, error) {
	lawyer, err := s.Get(lawyerID)
	if err != nil {
		return false, err
	}
	lawyer.IsOnShift = !lawyer.IsOnShift
	if err := s.db.Model(lawyer).Update("is_on_shift", lawyer.IsOnShift).Error; err != nil {
		return false, err
	}
	return lawyer.IsOnShift, nil
}
