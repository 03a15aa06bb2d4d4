package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/models"
)

type recordingQueueNotifier struct {
	newCases []uuid.UUID
	assigned []uuid.UUID
}

func (n *recordingQueueNotifier) NotifyNewCase(conversation *models.Conversation) {
	n.newCases = append(n.newCases, conversation.ID)
}

func (n *recordingQueueNotifier) NotifyCaseAssigned(conversationID, lawyerID uuid.UUID) {
	n.assigned = append(n.assigned, conversationID)
}

func TestOnShiftFirstRankingOrder(t *testing.T) {
	candidates := []Candidate{
		{Lawyer: models.Lawyer{Name: "Zoe", IsAvailable: true, IsOnShift: false}},
		{Lawyer: models.Lawyer{Name: "Berta", IsAvailable: false, IsOnShift: true}},
		{Lawyer: models.Lawyer{Name: "Carla", IsAvailable: true, IsOnShift: true}},
		{Lawyer: models.Lawyer{Name: "Ana", IsAvailable: true, IsOnShift: true}},
	}

	ranked := OnShiftFirstRanking{}.Rank(candidates)

	want := []string{"Ana", "Carla", "Berta", "Zoe"}
	for i, name := range want {
		if ranked[i].Lawyer.Name != name {
			t.Fatalf("rank %d: got %s, want %s", i, ranked[i].Lawyer.Name, name)
		}
	}
	// input must not be reordered in place
	if candidates[0].Lawyer.Name != "Zoe" {
		t.Fatalf("Rank mutated its input")
	}
}

func TestLeastLoadedRankingOrder(t *testing.T) {
	candidates := []Candidate{
		{Lawyer: models.Lawyer{Name: "Ana"}, ActiveCases: 3},
		{Lawyer: models.Lawyer{Name: "Carla"}, ActiveCases: 1},
		{Lawyer: models.Lawyer{Name: "Berta"}, ActiveCases: 1},
	}

	ranked := LeastLoadedRanking{}.Rank(candidates)

	want := []string{"Berta", "Carla", "Ana"}
	for i, name := range want {
		if ranked[i].Lawyer.Name != name {
			t.Fatalf("rank %d: got %s, want %s", i, ranked[i].Lawyer.Name, name)
		}
	}
}

func TestCandidateEligibility(t *testing.T) {
	cases := []struct {
		name      string
		candidate Candidate
		want      bool
	}{
		{"available on shift under cap", Candidate{Lawyer: models.Lawyer{IsAvailable: true, IsOnShift: true, MaxConcurrentCases: 5}, ActiveCases: 2}, true},
		{"at cap", Candidate{Lawyer: models.Lawyer{IsAvailable: true, IsOnShift: true, MaxConcurrentCases: 5}, ActiveCases: 5}, false},
		{"off shift", Candidate{Lawyer: models.Lawyer{IsAvailable: true, IsOnShift: false, MaxConcurrentCases: 5}}, false},
		{"unavailable", Candidate{Lawyer: models.Lawyer{IsAvailable: false, IsOnShift: true, MaxConcurrentCases: 5}}, false},
	}
	for _, tc := range cases {
		if got := tc.candidate.Eligible(); got != tc.want {
			t.Fatalf("%s: Eligible() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPickLawyerSkipsLawyerAtCap(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 1)
	berta := env.seedLawyer(t, "berta", true, true, 5)

	// ana ranks first by name but already sits at her cap
	if err := env.db.Create(&models.Conversation{
		PlatformID: platform.ID,
		LawyerID:   &ana.ID,
		Status:     models.ConversationActive,
	}).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	picked, err := env.assignment.PickLawyer()
	if err != nil {
		t.Fatalf("PickLawyer failed: %v", err)
	}
	if picked == nil {
		t.Fatalf("expected a lawyer, got none")
	}
	if picked.ID != berta.ID {
		t.Fatalf("picked %s, want %s", picked.Name, berta.Name)
	}
}

func TestPickLawyerNoneEligible(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	env.seedLawyer(t, "ana", true, false, 5)
	env.seedLawyer(t, "berta", false, true, 5)

	picked, err := env.assignment.PickLawyer()
	if err != nil {
		t.Fatalf("PickLawyer failed: %v", err)
	}
	if picked != nil {
		t.Fatalf("expected no lawyer, got %s", picked.Name)
	}
}

func TestAutoAssignNotifiesQueueWhenNobodyEligible(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	notifier := &recordingQueueNotifier{}
	env.assignment.SetNotifier(notifier)

	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationPending}
	if err := env.db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	if err := env.assignment.AutoAssign(&conversation); err != nil {
		t.Fatalf("AutoAssign failed: %v", err)
	}
	if conversation.Status != models.ConversationPending {
		t.Fatalf("status = %s, want pending", conversation.Status)
	}
	if conversation.LawyerID != nil {
		t.Fatalf("expected no lawyer bound")
	}
	if len(notifier.newCases) != 1 || notifier.newCases[0] != conversation.ID {
		t.Fatalf("queue was not told about the new case: %v", notifier.newCases)
	}
}

func TestUnassignedCaseNotifiesOnShiftLawyers(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	// on shift but unavailable: cannot take the case, still told about it
	busy := env.seedLawyer(t, "ana", false, true, 5)
	offShift := env.seedLawyer(t, "berta", true, false, 5)

	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationPending}
	if err := env.db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	if err := env.assignment.AutoAssign(&conversation); err != nil {
		t.Fatalf("AutoAssign failed: %v", err)
	}
	if conversation.Status != models.ConversationPending {
		t.Fatalf("status = %s, want pending", conversation.Status)
	}

	var busyRows, offShiftRows int64
	if err := env.db.Model(&models.Notification{}).
		Where("lawyer_id = ? AND notification_type = ?", busy.ID, models.NotificationNewCase).
		Count(&busyRows).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if err := env.db.Model(&models.Notification{}).
		Where("lawyer_id = ?", offShift.ID).Count(&offShiftRows).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if busyRows != 1 {
		t.Fatalf("on-shift lawyer got %d new_case notifications, want 1", busyRows)
	}
	if offShiftRows != 0 {
		t.Fatalf("off-shift lawyer got %d notifications, want 0", offShiftRows)
	}
}

func TestClaimSingleWinner(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 5)
	berta := env.seedLawyer(t, "berta", true, true, 5)

	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationPending}
	if err := env.db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	won, err := env.assignment.Claim(conversation.ID, ana.ID)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if won.Status != models.ConversationActive {
		t.Fatalf("status after claim = %s, want active", won.Status)
	}
	if won.LawyerID == nil || *won.LawyerID != ana.ID {
		t.Fatalf("conversation bound to wrong lawyer")
	}

	if _, err := env.assignment.Claim(conversation.ID, berta.ID); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("second claim: got %v, want ErrAlreadyAssigned", err)
	}

	var stored models.Conversation
	if err := env.db.First(&stored, "id = ?", conversation.ID).Error; err != nil {
		t.Fatalf("failed to reload conversation: %v", err)
	}
	if stored.LawyerID == nil || *stored.LawyerID != ana.ID {
		t.Fatalf("loser overwrote the winner")
	}

	var systemMessages []models.Message
	if err := env.db.Where("conversation_id = ? AND is_system_message = ?", conversation.ID, true).
		Find(&systemMessages).Error; err != nil {
		t.Fatalf("failed to load messages: %v", err)
	}
	if len(systemMessages) != 1 {
		t.Fatalf("got %d system messages, want exactly 1", len(systemMessages))
	}
	if systemMessages[0].Content != "El abogado ana ha tomado este caso." {
		t.Fatalf("unexpected assignment message: %q", systemMessages[0].Content)
	}

	var notifications []models.Notification
	if err := env.db.Where("lawyer_id = ?", ana.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].NotificationType != models.NotificationCaseAssigned {
		t.Fatalf("expected one case_assigned notification, got %v", notifications)
	}
}

func TestClaimByIneligibleLawyer(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	offShift := env.seedLawyer(t, "ana", true, false, 5)

	conversation := models.Conversation{PlatformID: platform.ID, Status: models.ConversationPending}
	if err := env.db.Create(&conversation).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	if _, err := env.assignment.Claim(conversation.ID, offShift.ID); !errors.Is(err, ErrCannotAcceptCase) {
		t.Fatalf("got %v, want ErrCannotAcceptCase", err)
	}

	var stored models.Conversation
	if err := env.db.First(&stored, "id = ?", conversation.ID).Error; err != nil {
		t.Fatalf("failed to reload conversation: %v", err)
	}
	if stored.LawyerID != nil || stored.Status != models.ConversationPending {
		t.Fatalf("rejected claim still mutated the conversation")
	}
}

func TestClaimAtCapLawyer(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 1)

	if err := env.db.Create(&models.Conversation{
		PlatformID: platform.ID,
		LawyerID:   &ana.ID,
		Status:     models.ConversationActive,
	}).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	pending := models.Conversation{PlatformID: platform.ID, Status: models.ConversationPending}
	if err := env.db.Create(&pending).Error; err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}

	if _, err := env.assignment.Claim(pending.ID, ana.ID); !errors.Is(err, ErrCannotAcceptCase) {
		t.Fatalf("got %v, want ErrCannotAcceptCase", err)
	}
}

func TestClaimUnknownConversation(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	ana := env.seedLawyer(t, "ana", true, true, 5)

	if _, err := env.assignment.Claim(uuid.New(), ana.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("got %v, want ErrConversationNotFound", err)
	}
}

func TestActiveCaseCountIgnoresClosed(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 5)

	for _, status := range []models.ConversationStatus{
		models.ConversationActive,
		models.ConversationPending,
		models.ConversationClosed,
		models.ConversationWaitingClient,
	} {
		if err := env.db.Create(&models.Conversation{
			PlatformID: platform.ID,
			LawyerID:   &ana.ID,
			Status:     status,
		}).Error; err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
	}

	count, err := env.assignment.ActiveCaseCount(ana.ID)
	if err != nil {
		t.Fatalf("ActiveCaseCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (active + pending)", count)
	}
}
