package services

import (
	"testing"
	"time"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/models"
)

func TestDashboardCounts(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 5)

	now := time.Now()
	seed := []models.Conversation{
		{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationActive},
		{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationWaitingClient},
		{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationPending},
		{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationClosed, ClosedAt: &now},
		{PlatformID: platform.ID, Status: models.ConversationPending},
	}
	for i := range seed {
		if err := env.db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
	}

	stats, err := env.lawyers.Dashboard(ana.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.ActiveCases != 3 {
		t.Fatalf("active cases = %d, want 3 (active, waiting_client, pending)", stats.ActiveCases)
	}
	if stats.PendingCases != 1 {
		t.Fatalf("pending cases = %d, want 1", stats.PendingCases)
	}
	if stats.ResolvedToday != 1 {
		t.Fatalf("resolved today = %d, want 1", stats.ResolvedToday)
	}
	if len(stats.UnassignedCases) != 1 {
		t.Fatalf("unassigned cases = %d, want 1", len(stats.UnassignedCases))
	}
}

func TestResolvedTodayUsesLocalDay(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 5)

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today := midnight.Add(time.Minute)
	yesterday := midnight.Add(-time.Minute)

	for _, closedAt := range []time.Time{today, yesterday} {
		at := closedAt
		if err := env.db.Create(&models.Conversation{
			PlatformID: platform.ID,
			LawyerID:   &ana.ID,
			Status:     models.ConversationClosed,
			ClosedAt:   &at,
		}).Error; err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
	}

	stats, err := env.lawyers.Dashboard(ana.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.ResolvedToday != 1 {
		t.Fatalf("resolved today = %d, want 1 (local calendar day)", stats.ResolvedToday)
	}
}

func TestCaseloadBuckets(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")
	ana := env.seedLawyer(t, "ana", true, true, 5)

	now := time.Now()
	open := models.Conversation{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationActive}
	done := models.Conversation{PlatformID: platform.ID, LawyerID: &ana.ID, Status: models.ConversationClosed, ClosedAt: &now}
	for _, c := range []*models.Conversation{&open, &done} {
		if err := env.db.Create(c).Error; err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
	}

	active, err := env.lawyers.Caseload(ana.ID, "active")
	if err != nil {
		t.Fatalf("Caseload failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Fatalf("active bucket wrong: %v", active)
	}

	closed, err := env.lawyers.Caseload(ana.ID, "closed")
	if err != nil {
		t.Fatalf("Caseload failed: %v", err)
	}
	if len(closed) != 1 || closed[0].ID != done.ID {
		t.Fatalf("closed bucket wrong: %v", closed)
	}
}

func TestUnassignedQueueOrderAndLimit(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	platform := env.seedPlatform(t, "prestamito")

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		c := models.Conversation{
			PlatformID: platform.ID,
			Status:     models.ConversationPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := env.db.Create(&c).Error; err != nil {
			t.Fatalf("failed to seed conversation: %v", err)
		}
		ids = append(ids, c.ID.String())
	}

	queue, err := env.lawyers.UnassignedQueue(2)
	if err != nil {
		t.Fatalf("UnassignedQueue failed: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("limit not applied: got %d", len(queue))
	}
	if queue[0].ID.String() != ids[2] || queue[1].ID.String() != ids[1] {
		t.Fatalf("queue not ordered newest first")
	}
}

func TestToggleAvailabilityAndShift(t *testing.T) {
	env := newTestEnv(t, config.ConversationsConfig{})
	ana := env.seedLawyer(t, "ana", true, false, 5)

	available, err := env.lawyers.ToggleAvailability(ana.ID)
	if err != nil {
		t.Fatalf("ToggleAvailability failed: %v", err)
	}
	if available {
		t.Fatalf("expected availability to flip to false")
	}

	onShift, err := env.lawyers.ToggleShift(ana.ID)
	if err != nil {
		t.Fatalf("ToggleShift failed: %v", err)
	}
	if !onShift {
		t.Fatalf("expected shift to flip to true")
	}

	var stored models.Lawyer
	if err := env.db.First(&stored, "id = ?", ana.ID).Error; err != nil {
		t.Fatalf("failed to reload lawyer: %v", err)
	}
	if stored.IsAvailable || !stored.IsOnShift {
		t.Fatalf("toggles not persisted: available=%v on_shift=%v", stored.IsAvailable, stored.IsOnShift)
	}
}
