package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrateAll(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

type testEnv struct {
	db            *gorm.DB
	platforms     *PlatformService
	lawyers       *LawyerService
	loans         *LoanService
	assignment    *AssignmentService
	conversations *ConversationService
	notifications *NotificationService
}

func newTestEnv(t *testing.T, cfg config.ConversationsConfig) *testEnv {
	t.Helper()
	db := newTestDB(t)
	platforms := NewPlatformService(db)
	notifications := NewNotificationService(db, nil, "avocadolegal.notifications")
	assignment := NewAssignmentService(db, OnShiftFirstRanking{}, notifications)
	conversations := NewConversationService(db, cfg, platforms, assignment, notifications)
	return &testEnv{
		db:            db,
		platforms:     platforms,
		lawyers:       NewLawyerService(db),
		loans:         NewLoanService(db),
		assignment:    assignment,
		conversations: conversations,
		notifications: notifications,
	}
}

func (e *testEnv) seedPlatform(t *testing.T, name string) *models.Platform {
	t.Helper()
	platform := &models.Platform{Name: name, Domain: name + ".example.com", IsActive: true}
	if err := e.db.Create(platform).Error; err != nil {
		t.Fatalf("failed to seed platform: %v", err)
	}
	return platform
}

func (e *testEnv) seedLawyer(t *testing.T, name string, available, onShift bool, maxCases int) *models.Lawyer {
	t.Helper()
	lawyer := &models.Lawyer{
		Name:  name,
		Email: name + "@jcj.example.com",
	}
	if err := e.db.Create(lawyer).Error; err != nil {
		t.Fatalf("failed to seed lawyer: %v", err)
	}
	// written separately: gorm skips zero-value fields that carry a default tag
	if err := e.db.Model(lawyer).Updates(map[string]interface{}{
		"is_available":         available,
		"is_on_shift":          onShift,
		"max_concurrent_cases": maxCases,
	}).Error; err != nil {
		t.Fatalf("failed to seed lawyer flags: %v", err)
	}
	lawyer.IsAvailable = available
	lawyer.IsOnShift = onShift
	lawyer.MaxConcurrentCases = maxCases
	return lawyer
}
