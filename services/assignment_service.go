package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carlospion/AvocadoLegal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrAlreadyAssigned      = errors.New("conversation already assigned")
	ErrCannotAcceptCase     = errors.New("lawyer cannot accept more cases")
)

// Candidate pairs a lawyer with their current open-case load so ranking
// strategies can order on either.
type Candidate struct {
	Lawyer      models.Lawyer
	ActiveCases int
}

func (c Candidate) Eligible() bool {
	return c.Lawyer.IsAvailable && c.Lawyer.IsOnShift &&
		c.ActiveCases < c.Lawyer.MaxConcurrentCases
}

// RankingStrategy orders assignment candidates; the first eligible candidate
// in the returned slice wins the case.
type RankingStrategy interface {
	Rank(candidates []Candidate) []Candidate
}

// OnShiftFirstRanking is the default ordering: on-shift first, then available,
// then name.
type OnShiftFirstRanking struct{}

func (OnShiftFirstRanking) Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Lawyer, ranked[j].Lawyer
		if a.IsOnShift != b.IsOnShift {
			return a.IsOnShift
		}
		if a.IsAvailable != b.IsAvailable {
			return a.IsAvailable
		}
		return a.Name < b.Name
	})
	return ranked
}

// LeastLoadedRanking prefers the lawyer with the fewest open cases, breaking
// ties by name.
type LeastLoadedRanking struct{}

func (LeastLoadedRanking) Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ActiveCases != ranked[j].ActiveCases {
			return ranked[i].ActiveCases < ranked[j].ActiveCases
		}
		return ranked[i].Lawyer.Name < ranked[j].Lawyer.Name
	})
	return ranked
}

// QueueNotifier receives queue-wide events. The websocket hub implements it;
// a nil notifier is valid and drops the events.
type QueueNotifier interface {
	NotifyNewCase(conversation *models.Conversation)
	NotifyCaseAssigned(conversationID, lawyerID uuid.UUID)
}

type AssignmentService struct {
	db            *gorm.DB
	ranking       RankingStrategy
	notifier      QueueNotifier
	notifications *NotificationService
}

func NewAssignmentService(db *gorm.DB, ranking RankingStrategy, notifications *NotificationService) *AssignmentService {
	if ranking == nil {
		ranking = OnShiftFirstRanking{}
	}
	return &AssignmentService{
		db:            db,
		ranking:       ranking,
		notifications: notifications,
	}
}

// SetNotifier attaches the real-time queue channel. Set once at wiring time.
func (s *AssignmentService) SetNotifier(notifier QueueNotifier) {
	s.notifier = notifier
}

// ActiveCaseCount is the number of conversations counting against the
// lawyer's cap.
func (s *AssignmentService) ActiveCaseCount(lawyerID uuid.UUID) (int, error) {
	var count int64
	err := s.db.Model(&models.Conversation{}).
		Where("lawyer_id = ? AND status IN ?", lawyerID, models.ActiveCaseStatuses).
		Count(&count).Error
	return int(count), err
}

func (s *AssignmentService) candidates() ([]Candidate, error) {
	var lawyers []models.Lawyer
	if err := s.db.Find(&lawyers).Error; err != nil {
		return nil, err
	}

	type loadRow struct {
		LawyerID uuid.UUID
		Count    int
	}
	var loads []loadRow
	err := s.db.Model(&models.Conversation{}).
		Select("lawyer_id, count(*) as count").
		Where("lawyer_id IS NOT NULL AND status IN ?", models.ActiveCaseStatuses).
		Group("lawyer_id").
		Scan(&loads).Error
	if err != nil {
		return nil, err
	}
	byLawyer := make(map[uuid.UUID]int, len(loads))
	for _, l := range loads {
		byLawyer[l.LawyerID] = l.Count
	}

	candidates := make([]Candidate, 0, len(lawyers))
	for _, l := range lawyers {
		candidates = append(candidates, Candidate{Lawyer: l, ActiveCases: byLawyer[l.ID]})
	}
	return candidates, nil
}

// PickLawyer returns the first eligible lawyer by rank, or nil when nobody can
// take the case.
func (s *AssignmentService) PickLawyer() (*models.Lawyer, error) {
	candidates, err := s.candidates()
	if err != nil {
		return nil, err
	}
	for _, c := range s.ranking.Rank(candidates) {
		if c.Eligible() {
			lawyer := c.Lawyer
			return &lawyer, nil
		}
	}
	return nil, nil
}

// AutoAssign runs once, synchronously, right after intake. On success the
// conversation is active and carries the assignment system message; otherwise
// it stays pending and the shared queue is told about the new case.
func (s *AssignmentService) AutoAssign(conversation *models.Conversation) error {
	lawyer, err := s.PickLawyer()
	if err != nil {
		return err
	}
	if lawyer == nil {
		if s.notifier != nil {
			s.notifier.NotifyNewCase(conversation)
		}
		if s.notifications != nil {
			var onShift []models.Lawyer
			if err := s.db.Where("is_on_shift = ?", true).Find(&onShift).Error; err == nil {
				for i := range onShift {
					s.notifications.NewCase(&onShift[i], conversation)
				}
			}
		}
		return nil
	}

	if err := s.bind(conversation, lawyer); err != nil {
		if errors.Is(err, ErrAlreadyAssigned) {
			return nil
		}
		return err
	}
	return nil
}

// Claim is the manual path: an eligible lawyer takes a pending unassigned
// case. The lawyer-is-null guard makes concurrent claims single-winner.
func (s *AssignmentService) Claim(conversationID, lawyerID uuid.UUID) (*models.Conversation, error) {
	var lawyer models.Lawyer
	if err := s.db.First(&lawyer, "id = ?", lawyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	count, err := s.ActiveCaseCount(lawyerID)
	if err != nil {
		return nil, err
	}
	if !(Candidate{Lawyer: lawyer, ActiveCases: count}).Eligible() {
		return nil, ErrCannotAcceptCase
	}

	var conversation models.Conversation
	if err := s.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if err := s.bind(&conversation, &lawyer); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// bind is the single winner path shared by auto-assignment and claims: a
// conditional update guarded on lawyer_id IS NULL, then the system message and
// the queue/notification fan-out.
func (s *AssignmentService) bind(conversation *models.Conversation, lawyer *models.Lawyer) error {
	result := s.db.Model(&models.Conversation{}).
		Where("id = ? AND lawyer_id IS NULL AND status = ?", conversation.ID, models.ConversationPending).
		Updates(map[string]interface{}{
			"lawyer_id":  lawyer.ID,
			"status":     models.ConversationActive,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyAssigned
	}

	conversation.LawyerID = &lawyer.ID
	conversation.Status = models.ConversationActive

	msg := models.NewSystemMessage(conversation.ID,
		fmt.Sprintf("El abogado %s ha tomado este caso.", lawyer.Name))
	if err := s.db.Create(msg).Error; err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyCaseAssigned(conversation.ID, lawyer.ID)
	}
	if s.notifications != nil {
		s.notifications.CaseAssigned(lawyer, conversation)
	}
	return nil
}
