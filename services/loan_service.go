package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/models"
)

var ErrLoanNotFound = errors.New("loan not found")

type LoanService struct {
	db *gorm.DB
}

func NewLoanService(db *gorm.DB) *LoanService {
	return &LoanService{db: db}
}

func (s *LoanService) Create(loan *models.Loan) error {
	return s.db.Create(loan).Error
}

// Get fetches a loan, scoped through its client to the requesting platform.
func (s *LoanService) Get(platformID, loanID uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Preload("Client").
		Joins("JOIN clients ON clients.id = loans.client_id").
		Where("loans.id = ? AND clients.platform_id = ?", loanID, platformID).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (s *LoanService) List(platformID uuid.UUID) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Preload("Client").
		Joins("JOIN clients ON clients.id = loans.client_id").
		Where("clients.platform_id = ?", platformID).
		Order("loans.days_overdue DESC, loans.created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (s *LoanService) ListByClient(platformID, clientID uuid.UUID) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.
		Joins("JOIN clients ON clients.id = loans.client_id").
		Where("loans.client_id = ? AND clients.platform_id = ?", clientID, platformID).
		Order("loans.days_overdue DESC, loans.created_at DESC").
		Find(&loans).Error
	return loans, err
}

// ListIrregular returns the platform's loans in a state that may need legal
// action.
func (s *LoanService) ListIrregular(platformID uuid.UUID) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Preload("Client").
		Joins("JOIN clients ON clients.id = loans.client_id").
		Where("clients.platform_id = ?", platformID).
		Where("loans.status IN ?", []models.LoanStatus{
			models.LoanStatusRetraso, models.LoanStatusMora, models.LoanStatusVencido,
			models.LoanStatusCobranza, models.LoanStatusLegal,
		}).
		Order("loans.days_overdue DESC, loans.created_at DESC").
		Find(&loans).Error
	return loans, err
}

type LoanAnalysis struct {
	LoanID         uuid.UUID `json:"loan_id"`
	ClientName     string    `json:"client_name"`
	Status         string    `json:"status"`
	IsIrregular    bool      `json:"is_irregular"`
	DaysOverdue    int       `json:"days_overdue"`
	Recommendation string    `json:"recommendation"`
}

// Analyze classifies a loan by how far overdue it is.
func (s *LoanService) Analyze(platformID, loanID uuid.UUID) (*LoanAnalysis, error) {
	loan, err := s.Get(platformID, loanID)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if loan.Client != nil {
		clientName = loan.Client.Name
	}
	return &LoanAnalysis{
		LoanID:         loan.ID,
		ClientName:     clientName,
		Status:         string(loan.Status),
		IsIrregular:    loan.IsIrregular(),
		DaysOverdue:    loan.DaysOverdue,
		Recommendation: recommendationFor(loan.DaysOverdue),
	}, nil
}

func recommendationFor(daysOverdue int) string {
	switch {
	case daysOverdue > 90:
		return "Accion legal recomendada"
	case daysOverdue > 60:
		return "Iniciar proceso de cobranza formal"
	case daysOverdue > 30:
		return "Contactar cliente para acuerdo de pago"
	default:
		return "Monitorear situacion"
	}
}
